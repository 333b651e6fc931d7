// Package pipeline drives one inbound message through tokenizing, request
// building, resolution and the ledger write, persisting every state
// transition for audit and replay.
package pipeline

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/canteenhq/canteend/internal/attendance"
	"github.com/canteenhq/canteend/internal/cancellation"
	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
	"github.com/canteenhq/canteend/internal/message/tokenizer"
	rosterdomain "github.com/canteenhq/canteend/internal/roster/domain"
)

// Pipeline is the per-message state machine. Every stage runs inside the
// caller's transaction; the message id doubles as the cause id correlating
// states, ledger rows and the reply.
type Pipeline struct {
	log      *zap.Logger
	messages messagedomain.Repository
	writer   *attendance.Writer
	resolver *attendance.Resolver
}

func New(
	log *zap.Logger,
	messages messagedomain.Repository,
	writer *attendance.Writer,
	resolver *attendance.Resolver,
) *Pipeline {
	return &Pipeline{
		log:      log.Named("pipeline"),
		messages: messages,
		writer:   writer,
		resolver: resolver,
	}
}

// Run processes one claimed message against the sender's roster snapshot.
// User-input failures terminate the run normally with an error reply; only
// storage failures return an error, rolling the whole run back.
func (p *Pipeline) Run(ctx context.Context, tx *gorm.DB, msg *messagedomain.Message, snapshot *rosterdomain.Snapshot) error {
	causeID := msg.ID
	log := p.log.With(zap.Int64("cause_id", int64(causeID)))

	if err := p.messages.SaveState(ctx, tx, causeID, messagedomain.StateInit, struct{}{}); err != nil {
		return err
	}

	tokens := tokenizer.Tokenize(msg.Content, msg.Sent, snapshot.Students)
	if err := p.messages.SaveState(ctx, tx, causeID, messagedomain.StateTokens, tokens); err != nil {
		return err
	}

	request, rerr := cancellation.BuildRequest(tokens)
	if rerr != nil {
		return p.fail(ctx, tx, msg, rerr, log)
	}
	if err := p.messages.SaveState(ctx, tx, causeID, messagedomain.StateCancellation, request); err != nil {
		return err
	}

	resolved, rerr := cancellation.Resolve(request, snapshot.Students, msg.Sent)
	if rerr != nil {
		return p.fail(ctx, tx, msg, rerr, log)
	}
	if err := p.messages.SaveState(ctx, tx, causeID, messagedomain.StateStudentCancellation, resolved.Students); err != nil {
		return err
	}

	if err := p.writer.Write(ctx, tx, causeID, resolved, snapshot.Students); err != nil {
		return err
	}
	results, err := p.resolver.EffectiveCounts(ctx, tx, causeID)
	if err != nil {
		return err
	}
	if err := p.messages.SaveState(ctx, tx, causeID, messagedomain.StateCancellationResult, results); err != nil {
		return err
	}

	log.Info("message resolved",
		zap.Int("students", len(resolved.Students)),
		zap.Int("affected", len(results)),
	)
	return p.messages.EnqueueReply(ctx, tx, msg.Phone, composeResult(results), causeID)
}

func (p *Pipeline) fail(ctx context.Context, tx *gorm.DB, msg *messagedomain.Message, rerr *messagedomain.RequestError, log *zap.Logger) error {
	if err := p.messages.SaveState(ctx, tx, msg.ID, messagedomain.StateRequestError, rerr); err != nil {
		return err
	}
	log.Info("message rejected",
		zap.String("kind", string(rerr.Kind)),
		zap.String("term", rerr.Term),
	)
	return p.messages.EnqueueReply(ctx, tx, msg.Phone, composeError(rerr), msg.ID)
}
