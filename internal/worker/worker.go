// Package worker is the intake loop: it claims unprocessed inbound messages
// under row-level locking and feeds them through the pipeline, one
// transaction per message.
package worker

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
	"github.com/canteenhq/canteend/internal/observability/logger"
	"github.com/canteenhq/canteend/internal/pipeline"
	rosterdomain "github.com/canteenhq/canteend/internal/roster/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Messages messagedomain.Repository
	Roster   rosterdomain.Repository
	Pipeline *pipeline.Pipeline
	Config   Config `optional:"true"`
}

type Worker struct {
	db       *gorm.DB
	log      *zap.Logger
	messages messagedomain.Repository
	roster   rosterdomain.Repository
	pipeline *pipeline.Pipeline
	cfg      Config
	wake     chan struct{}
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:       p.DB,
		log:      p.Log.Named("worker"),
		messages: p.Messages,
		roster:   p.Roster,
		pipeline: p.Pipeline,
		cfg:      p.Config.withDefaults(),
		wake:     make(chan struct{}, 1),
	}
}

// Wake nudges the loop without waiting for the next poll tick. Safe from any
// goroutine; a pending nudge is never duplicated.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// RunForever drains the inbox, then sleeps until a notification or the poll
// ticker fires. The ticker backstops lost notifications.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.Drain(ctx); err != nil {
			w.log.Warn("intake drain failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		case <-ticker.C:
		}
	}
}

// Drain processes messages until the inbox is empty.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		handled, err := w.RunOnce(ctx)
		if err != nil {
			return err
		}
		if !handled {
			return nil
		}
	}
}

// RunOnce claims and processes a single message. The claim, every pipeline
// write and the processed flip commit together; any failure rolls the whole
// message back for the next cycle to retry.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	handled := false
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := w.messages.ClaimNext(ctx, tx)
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}
		handled = true

		snapshot, err := w.roster.SnapshotByPhone(ctx, tx, msg.Phone)
		if err != nil {
			return err
		}
		if snapshot == nil {
			// Not a guardian. Flip the flag so the gateway's row does not
			// spin forever; no reply goes to strangers.
			w.log.Warn("message from unknown sender",
				zap.Int64("message_id", int64(msg.ID)),
				zap.String("phone", logger.MaskPhone(msg.Phone)),
			)
			return w.messages.MarkProcessed(ctx, tx, msg.ID)
		}

		if err := w.pipeline.Run(ctx, tx, msg, snapshot); err != nil {
			return err
		}
		return w.messages.MarkProcessed(ctx, tx, msg.ID)
	})
	return handled, err
}
