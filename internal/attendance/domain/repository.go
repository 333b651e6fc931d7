package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the ledger access layer. Writes are inserts only.
type Repository interface {
	// InsertRecords appends ledger rows; it never touches existing ones.
	InsertRecords(ctx context.Context, tx *gorm.DB, records []Record) error

	// EffectiveCancelledCounts aggregates, per student and meal, how many
	// rows of the given cause flipped a target whose latest prior row (any
	// other cause) still said present.
	EffectiveCancelledCounts(ctx context.Context, tx *gorm.DB, causeID snowflake.ID) ([]EffectiveCount, error)

	// ParentsOf lists the closure rows of a target, self included.
	ParentsOf(ctx context.Context, db *gorm.DB, target snowflake.ID) ([]GroupRelation, error)

	// RecordsInRange returns all ledger rows of the given targets with
	// from <= day < to, in insertion order.
	RecordsInRange(ctx context.Context, db *gorm.DB, targets []snowflake.ID, from, to time.Time) ([]Record, error)

	// ManualCauses reports which of the given cause ids belong to manual
	// staff overrides rather than message runs.
	ManualCauses(ctx context.Context, db *gorm.DB, causeIDs []snowflake.ID) (map[snowflake.ID]bool, error)
}
