package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Record is one row of the append-only attendance ledger. Rows are never
// updated or deleted; the last-inserted row per (target, day, meal) is
// authoritative for that target's own status. CauseID links the row to the
// inbound message or manual override that produced it.
type Record struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	CauseID    snowflake.ID `gorm:"not null;index"`
	Target     snowflake.ID `gorm:"not null;index"`
	Day        time.Time    `gorm:"type:date;not null"`
	MealID     snowflake.ID `gorm:"not null"`
	Value      bool         `gorm:"not null"`
	Originated time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "attendance" }

// Override is the header row of a manual attendance change made by staff in
// the management UI; its id appears as a ledger cause. The pipeline only
// reads it to tell manual absences apart from SMS cancellations.
type Override struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Note      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Override) TableName() string { return "attendance_overrides" }

// GroupRelation is one row of the group-tree closure. Level 0 is the node
// itself; level grows with ancestor distance.
type GroupRelation struct {
	Child  snowflake.ID `gorm:"not null"`
	Parent snowflake.ID `gorm:"not null"`
	Level  int          `gorm:"not null"`
}

// TableName sets the database table name.
func (GroupRelation) TableName() string { return "group_relations" }

// Status is the resolved display state of a (target, day, meal) triple.
// Blocked marks a cancellation caused by an ancestor rather than the target
// itself.
type Status string

const (
	StatusPresent   Status = "present"
	StatusCancelled Status = "cancelled"
	StatusAbsent    Status = "absent"
	StatusBlocked   Status = "blocked"
)

// EffectiveCount is one aggregation row of the effective-cancellation query:
// how many scheduled-present instances of a meal a cause flipped for one
// student.
type EffectiveCount struct {
	StudentName string
	MealName    string
	Cancelled   int64
}
