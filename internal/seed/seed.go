// Package seed bootstraps a development roster so the pipeline can be
// exercised without the management UI.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	devGuardianName  = "Anna Kowalska"
	devGuardianPhone = "+48123456789"
	devCateringName  = "Stołówka Podstawowa"
)

// EnsureDevRoster seeds a guardian with one student, a catering group and
// two meals. Idempotent: it backs off as soon as any guardian exists.
func EnsureDevRoster(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table("guardians").Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		guardianID := node.Generate()
		studentID := node.Generate()
		groupID := node.Generate()
		cateringID := node.Generate()
		breakfastID := node.Generate()
		lunchID := node.Generate()

		now := time.Now().UTC()
		yearStart := time.Date(now.Year(), time.September, 1, 0, 0, 0, 0, time.UTC)
		if now.Before(yearStart) {
			yearStart = yearStart.AddDate(-1, 0, 0)
		}
		yearEnd := yearStart.AddDate(0, 10, 0)

		steps := []struct {
			query string
			args  []any
		}{
			{`INSERT INTO guardians (id, fullname, phone) VALUES (?, ?, ?)`,
				[]any{guardianID, devGuardianName, devGuardianPhone}},
			{`INSERT INTO students (id, name, surname) VALUES (?, ?, ?)`,
				[]any{studentID, "Kamil", "Kowalski"}},
			{`INSERT INTO student_guardians (student_id, guardian_id) VALUES (?, ?)`,
				[]any{studentID, guardianID}},
			{`INSERT INTO group_relations (child, parent, level) VALUES (?, ?, 0)`,
				[]any{groupID, groupID}},
			{`INSERT INTO group_relations (child, parent, level) VALUES (?, ?, 0)`,
				[]any{studentID, studentID}},
			{`INSERT INTO group_relations (child, parent, level) VALUES (?, ?, 1)`,
				[]any{studentID, groupID}},
			{`INSERT INTO meals (id, name) VALUES (?, ?)`,
				[]any{breakfastID, "Śniadanie"}},
			{`INSERT INTO meals (id, name) VALUES (?, ?)`,
				[]any{lunchID, "Obiad"}},
			// Weekdays only, cancellable until 07:00.
			{`INSERT INTO caterings (id, group_id, name, grace_period, since, until, dow)
			  VALUES (?, ?, ?, '07:00:00', ?, ?, 31)`,
				[]any{cateringID, groupID, devCateringName, yearStart, yearEnd}},
			{`INSERT INTO catering_meals (catering_id, meal_id, meal_order) VALUES (?, ?, 0)`,
				[]any{cateringID, breakfastID}},
			{`INSERT INTO catering_meals (catering_id, meal_id, meal_order) VALUES (?, ?, 1)`,
				[]any{cateringID, lunchID}},
		}
		for _, step := range steps {
			if err := tx.Exec(step.query, step.args...).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
