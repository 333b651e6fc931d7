package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/canteenhq/canteend/internal/attendance"
	"github.com/canteenhq/canteend/internal/clock"
	"github.com/canteenhq/canteend/internal/config"
	"github.com/canteenhq/canteend/internal/message"
	"github.com/canteenhq/canteend/internal/migration"
	"github.com/canteenhq/canteend/internal/observability/logger"
	"github.com/canteenhq/canteend/internal/pipeline"
	"github.com/canteenhq/canteend/internal/roster"
	"github.com/canteenhq/canteend/internal/seed"
	"github.com/canteenhq/canteend/internal/server"
	"github.com/canteenhq/canteend/internal/worker"
	"github.com/canteenhq/canteend/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if !cfg.IsProduction() {
				return seed.EnsureDevRoster(conn)
			}
			return nil
		}),

		roster.Module,
		message.Module,
		attendance.Module,
		pipeline.Module,
		worker.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
