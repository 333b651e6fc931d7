// Package server exposes the read-side HTTP API consumed by the management
// UI: the audit trail of a message run, the requeue knob, and the resolved
// month view of a student's attendance.
package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/canteenhq/canteend/internal/attendance"
	"github.com/canteenhq/canteend/internal/config"
	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
	"github.com/canteenhq/canteend/internal/observability/logger"
)

type Server struct {
	cfg      config.Config
	db       *gorm.DB
	log      *zap.Logger
	messages messagedomain.Repository
	resolver *attendance.Resolver
}

type Params struct {
	fx.In

	Config   config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	Messages messagedomain.Repository
	Resolver *attendance.Resolver
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:      p.Config,
		db:       p.DB,
		log:      p.Log.Named("server"),
		messages: p.Messages,
		resolver: p.Resolver,
	}
}

func NewEngine(cfg config.Config, node *snowflake.Node) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Node:      node,
		SkipPaths: []string{"/api/healthz"},
	}))
	return engine
}

func (s *Server) RegisterAPIRoutes(engine *gin.Engine) {
	api := engine.Group("/api")
	api.GET("/healthz", s.Health)
	api.GET("/messages/:id/processing", s.GetProcessingStates)
	api.POST("/messages/:id/requeue", s.RequeueMessage)
	api.GET("/attendance/:target/effective", s.GetEffectiveMonth)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server, engine *gin.Engine) {
		s.RegisterAPIRoutes(engine)
	}),
	fx.Invoke(RunHTTP),
)
