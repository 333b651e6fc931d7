package worker

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/canteenhq/canteend/internal/config"
)

// Listener holds a dedicated connection on LISTEN and wakes the worker when
// the gateway's insert trigger raises a notification. Losing it is harmless;
// the worker's poll ticker covers the gap until the reconnect.
type Listener struct {
	log  *zap.Logger
	dsn  string
	cfg  Config
	wake func()
}

func NewListener(log *zap.Logger, cfg config.Config, wcfg Config, worker *Worker) *Listener {
	return &Listener{
		log:  log.Named("worker.listener"),
		dsn:  cfg.DatabaseURL,
		cfg:  wcfg.withDefaults(),
		wake: worker.Wake,
	}
}

func (l *Listener) RunForever(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			l.log.Warn("notification listener disconnected", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.cfg.ReconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN received"); err != nil {
		return err
	}
	l.log.Info("listening for inbound message notifications")

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			return err
		}
		l.wake()
	}
}
