package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrMessageNotFound = errors.New("message_not_found")
)

// Repository covers the inbox/outbox table and the persisted audit trail.
type Repository interface {
	// ClaimNext locks and returns the oldest unprocessed inbound message,
	// skipping rows already claimed by concurrent workers. Returns nil when
	// the inbox is drained. Must run inside a transaction.
	ClaimNext(ctx context.Context, tx *gorm.DB) (*Message, error)

	// MarkProcessed flips the processed flag of an inbound message.
	MarkProcessed(ctx context.Context, tx *gorm.DB, id snowflake.ID) error

	// EnqueueReply appends an outbound message tagged with the cause id of
	// the run that produced it.
	EnqueueReply(ctx context.Context, tx *gorm.DB, phone, content string, causeID snowflake.ID) error

	// SaveState appends one pipeline state transition to the audit trail.
	SaveState(ctx context.Context, tx *gorm.DB, causeID snowflake.ID, kind StateKind, payload any) error

	// ListStates returns the persisted states of one run in insertion order.
	ListStates(ctx context.Context, db *gorm.DB, causeID snowflake.ID) ([]ProcessingState, error)

	// Requeue clears the processed flag so the intake loop retries the
	// message. Returns ErrMessageNotFound for unknown or outgoing ids.
	Requeue(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
