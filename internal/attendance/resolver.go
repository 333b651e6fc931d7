package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	attendancedomain "github.com/canteenhq/canteend/internal/attendance/domain"
	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
)

// Resolver answers questions about the ledger: what a message run actually
// changed, and what a student's month looks like once ancestor group
// cancellations and manual overrides are folded in.
type Resolver struct {
	log  *zap.Logger
	repo attendancedomain.Repository
}

func NewResolver(log *zap.Logger, repo attendancedomain.Repository) *Resolver {
	return &Resolver{
		log:  log.Named("attendance.resolver"),
		repo: repo,
	}
}

// EffectiveCounts summarizes a cause for the confirmation reply. Rows the
// cause inserted on top of an already-absent target are excluded, so the
// guardian only hears about attendances that actually flipped.
func (r *Resolver) EffectiveCounts(ctx context.Context, tx *gorm.DB, causeID snowflake.ID) ([]messagedomain.CancellationResult, error) {
	counts, err := r.repo.EffectiveCancelledCounts(ctx, tx, causeID)
	if err != nil {
		return nil, err
	}

	var results []messagedomain.CancellationResult
	index := make(map[string]int, len(counts))
	for _, count := range counts {
		i, ok := index[count.StudentName]
		if !ok {
			i = len(results)
			index[count.StudentName] = i
			results = append(results, messagedomain.CancellationResult{
				Name:  count.StudentName,
				Meals: make(map[string]int64),
			})
		}
		results[i].Meals[count.MealName] += count.Cancelled
	}
	return results, nil
}

// MonthStatus is the resolved state of one (day, meal) cell of a target's
// month view.
type MonthStatus struct {
	Day    time.Time
	MealID snowflake.ID
	Status attendancedomain.Status
}

// MonthStatuses resolves the target's calendar month against the whole
// ancestor chain. For every (day, meal) with ledger activity the latest row
// per node wins, then the highest-level cancelling ancestor decides:
//
//   - an ancestor's absence blocks the target regardless of its own rows;
//   - the target's own absence is Absent when the cause is a manual
//     override and Cancelled when it came from a message;
//   - otherwise the cell is Present.
func (r *Resolver) MonthStatuses(ctx context.Context, db *gorm.DB, target snowflake.ID, year int, month time.Month) ([]MonthStatus, error) {
	relations, err := r.repo.ParentsOf(ctx, db, target)
	if err != nil {
		return nil, err
	}
	levels := make(map[snowflake.ID]int, len(relations))
	targets := make([]snowflake.ID, 0, len(relations))
	for _, rel := range relations {
		levels[rel.Parent] = rel.Level
		targets = append(targets, rel.Parent)
	}
	if len(targets) == 0 {
		// No closure rows means an unknown target with no ledger either.
		targets = []snowflake.ID{target}
		levels[target] = 0
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	records, err := r.repo.RecordsInRange(ctx, db, targets, from, to)
	if err != nil {
		return nil, err
	}

	// Records arrive in insertion order, so the map naturally keeps the
	// latest row per (node, day, meal).
	type cellKey struct {
		target snowflake.ID
		day    time.Time
		mealID snowflake.ID
	}
	latest := make(map[cellKey]attendancedomain.Record, len(records))
	for _, record := range records {
		day := record.Day.UTC().Truncate(24 * time.Hour)
		latest[cellKey{record.Target, day, record.MealID}] = record
	}

	causeIDs := make([]snowflake.ID, 0, len(latest))
	for _, record := range latest {
		causeIDs = append(causeIDs, record.CauseID)
	}
	manual, err := r.repo.ManualCauses(ctx, db, causeIDs)
	if err != nil {
		return nil, err
	}

	// Fold node rows down to one winner per (day, meal): the deepest
	// ancestor that cancels, or the target's own row when nothing above
	// it does.
	type dayMeal struct {
		day    time.Time
		mealID snowflake.ID
	}
	winners := make(map[dayMeal]attendancedomain.Record, len(latest))
	for key, record := range latest {
		level := levels[key.target]
		if record.Value && level > 0 {
			// A present ancestor carries no signal for the target.
			continue
		}
		cell := dayMeal{key.day, key.mealID}
		current, ok := winners[cell]
		if !ok || level > levels[current.Target] {
			winners[cell] = record
		}
	}

	statuses := make([]MonthStatus, 0, len(winners))
	for cell, record := range winners {
		status := attendancedomain.StatusPresent
		switch {
		case levels[record.Target] > 0:
			status = attendancedomain.StatusBlocked
		case !record.Value && manual[record.CauseID]:
			status = attendancedomain.StatusAbsent
		case !record.Value:
			status = attendancedomain.StatusCancelled
		}
		statuses = append(statuses, MonthStatus{
			Day:    cell.day,
			MealID: cell.mealID,
			Status: status,
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		if !statuses[i].Day.Equal(statuses[j].Day) {
			return statuses[i].Day.Before(statuses[j].Day)
		}
		return statuses[i].MealID < statuses[j].MealID
	})
	return statuses, nil
}
