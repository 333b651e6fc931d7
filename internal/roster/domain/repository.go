package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository resolves a sender phone number into a roster snapshot. The
// roster tables are owned by the group/catering subsystem; this side only
// reads them.
type Repository interface {
	// SnapshotByPhone returns nil when no guardian matches the number.
	SnapshotByPhone(ctx context.Context, db *gorm.DB, phone string) (*Snapshot, error)
}
