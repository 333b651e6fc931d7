// Package attendance writes SMS cancellations into the append-only ledger
// and resolves effective statuses across the group hierarchy.
package attendance

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	attendancedomain "github.com/canteenhq/canteend/internal/attendance/domain"
	"github.com/canteenhq/canteend/internal/clock"
	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
	rosterdomain "github.com/canteenhq/canteend/internal/roster/domain"
)

// Writer turns resolved cancellations into ledger rows.
type Writer struct {
	log   *zap.Logger
	repo  attendancedomain.Repository
	genID *snowflake.Node
	clk   clock.Clock
}

func NewWriter(log *zap.Logger, repo attendancedomain.Repository, genID *snowflake.Node, clk clock.Clock) *Writer {
	return &Writer{
		log:   log.Named("attendance.writer"),
		repo:  repo,
		genID: genID,
		clk:   clk,
	}
}

// Write appends one value=false row per (day, meal) of every student
// cancellation, restricted to the days the student's catering actually
// serves. Must run inside the pipeline's transaction.
func (w *Writer) Write(
	ctx context.Context,
	tx *gorm.DB,
	causeID snowflake.ID,
	cancellation messagedomain.AttendanceCancellation,
	students []rosterdomain.Student,
) error {
	byID := make(map[snowflake.ID]rosterdomain.Student, len(students))
	for _, student := range students {
		byID[student.ID] = student
	}

	now := w.clk.Now()
	var records []attendancedomain.Record
	for _, sc := range cancellation.Students {
		student, ok := byID[sc.StudentID]
		if !ok {
			continue
		}
		for day := sc.Since; !day.After(sc.Until); day = day.AddDate(0, 0, 1) {
			if !student.ActiveOn(day) {
				continue
			}
			for _, mealID := range sc.MealIDs {
				records = append(records, attendancedomain.Record{
					ID:         w.genID.Generate(),
					CauseID:    causeID,
					Target:     sc.StudentID,
					Day:        day,
					MealID:     mealID,
					Value:      false,
					Originated: now,
				})
			}
		}
	}

	w.log.Debug("writing cancellation rows",
		zap.Int64("cause_id", int64(causeID)),
		zap.Int("rows", len(records)),
	)
	return w.repo.InsertRecords(ctx, tx, records)
}
