package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	attendancedomain "github.com/canteenhq/canteend/internal/attendance/domain"
)

type Repository struct{}

func New() attendancedomain.Repository {
	return &Repository{}
}

func (r *Repository) InsertRecords(ctx context.Context, tx *gorm.DB, records []attendancedomain.Record) error {
	if len(records) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&records).Error
}

func (r *Repository) EffectiveCancelledCounts(ctx context.Context, tx *gorm.DB, causeID snowflake.ID) ([]attendancedomain.EffectiveCount, error) {
	var counts []attendancedomain.EffectiveCount
	// A row is effective when the target's latest ledger row from any other
	// cause still said present; rows that merely repeat an absence count for
	// nothing.
	err := tx.WithContext(ctx).Raw(
		`SELECT students.name AS student_name, meals.name AS meal_name, COUNT(*) AS cancelled
		 FROM attendance AS src
		 INNER JOIN students ON students.id = src.target
		 INNER JOIN meals ON meals.id = src.meal_id
		 WHERE src.cause_id = ?
		   AND (
		     SELECT prior.value FROM attendance AS prior
		     WHERE prior.target = src.target
		       AND prior.day = src.day
		       AND prior.meal_id = src.meal_id
		       AND prior.cause_id <> ?
		     ORDER BY prior.originated DESC, prior.id DESC
		     LIMIT 1
		   ) = ?
		 GROUP BY students.id, students.name, meals.id, meals.name
		 ORDER BY students.name, meals.name`,
		causeID, causeID, true,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *Repository) ParentsOf(ctx context.Context, db *gorm.DB, target snowflake.ID) ([]attendancedomain.GroupRelation, error) {
	var relations []attendancedomain.GroupRelation
	err := db.WithContext(ctx).
		Where("child = ?", target).
		Order("level").
		Find(&relations).Error
	if err != nil {
		return nil, err
	}
	return relations, nil
}

func (r *Repository) RecordsInRange(ctx context.Context, db *gorm.DB, targets []snowflake.ID, from, to time.Time) ([]attendancedomain.Record, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	var records []attendancedomain.Record
	err := db.WithContext(ctx).
		Where("target IN ? AND day >= ? AND day < ?", targets, from, to).
		Order("originated, id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) ManualCauses(ctx context.Context, db *gorm.DB, causeIDs []snowflake.ID) (map[snowflake.ID]bool, error) {
	manual := make(map[snowflake.ID]bool, len(causeIDs))
	if len(causeIDs) == 0 {
		return manual, nil
	}
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&attendancedomain.Override{}).
		Where("id IN ?", causeIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		manual[id] = true
	}
	return manual, nil
}
