package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
)

type Repository struct {
	genID *snowflake.Node
}

func New(genID *snowflake.Node) messagedomain.Repository {
	return &Repository{genID: genID}
}

func (r *Repository) ClaimNext(ctx context.Context, tx *gorm.DB) (*messagedomain.Message, error) {
	query := tx.WithContext(ctx).
		Where("NOT processed AND NOT outgoing").
		Order("sent, id").
		Limit(1)
	// SKIP LOCKED is what makes concurrent workers safe; sqlite (tests) has
	// no row locks and serializes writers instead.
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	var messages []messagedomain.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

func (r *Repository) MarkProcessed(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	result := tx.WithContext(ctx).
		Model(&messagedomain.Message{}).
		Where("id = ?", id).
		Update("processed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return messagedomain.ErrMessageNotFound
	}
	return nil
}

func (r *Repository) EnqueueReply(ctx context.Context, tx *gorm.DB, phone, content string, causeID snowflake.ID) error {
	reply := messagedomain.Message{
		ID:       r.genID.Generate(),
		Phone:    phone,
		Content:  content,
		Outgoing: true,
		CauseID:  &causeID,
		Sent:     time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&reply).Error
}

func (r *Repository) SaveState(ctx context.Context, tx *gorm.DB, causeID snowflake.ID, kind messagedomain.StateKind, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	state := messagedomain.ProcessingState{
		ID:        r.genID.Generate(),
		CauseID:   causeID,
		Kind:      kind,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&state).Error
}

func (r *Repository) ListStates(ctx context.Context, db *gorm.DB, causeID snowflake.ID) ([]messagedomain.ProcessingState, error) {
	var states []messagedomain.ProcessingState
	err := db.WithContext(ctx).
		Where("cause_id = ?", causeID).
		Order("id").
		Find(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (r *Repository) Requeue(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	result := db.WithContext(ctx).
		Model(&messagedomain.Message{}).
		Where("id = ? AND NOT outgoing", id).
		Update("processed", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return messagedomain.ErrMessageNotFound
	}
	return nil
}
