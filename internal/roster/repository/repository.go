package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/canteenhq/canteend/internal/cache"
	"github.com/canteenhq/canteend/internal/config"
	rosterdomain "github.com/canteenhq/canteend/internal/roster/domain"
)

// snapshotTTL keeps bursts of messages from the same guardian off the
// roster join without holding staff edits back for long.
const snapshotTTL = 10 * time.Second

type Repository struct {
	log         *zap.Logger
	phonePrefix string
	snapshots   cache.Cache[string, *rosterdomain.Snapshot]
}

func New(log *zap.Logger, cfg config.Config) rosterdomain.Repository {
	return &Repository{
		log:         log.Named("roster.repository"),
		phonePrefix: cfg.PhonePrefix,
		snapshots:   cache.NewTTLCache[string, *rosterdomain.Snapshot](),
	}
}

type guardianRow struct {
	ID       snowflake.ID
	Fullname string
}

type studentRow struct {
	ID          snowflake.ID
	Name        string
	Surname     string
	GracePeriod string
	Since       time.Time
	Until       time.Time
	Dow         int
	MealID      snowflake.ID
	MealName    string
}

func (r *Repository) SnapshotByPhone(ctx context.Context, db *gorm.DB, phone string) (*rosterdomain.Snapshot, error) {
	if snapshot, ok := r.snapshots.Get(phone); ok {
		return snapshot, nil
	}

	var guardians []guardianRow
	// Numbers may be stored bare; the gateway always reports them with the
	// international prefix.
	err := db.WithContext(ctx).Raw(
		`SELECT id, fullname FROM guardians
		 WHERE phone = ? OR (? || phone) = ?
		 LIMIT 1`,
		phone, r.phonePrefix, phone,
	).Scan(&guardians).Error
	if err != nil {
		return nil, err
	}
	if len(guardians) == 0 {
		return nil, nil
	}
	guardian := guardians[0]

	var rows []studentRow
	err = db.WithContext(ctx).Raw(
		`SELECT students.id, students.name, students.surname,
		        caterings.grace_period, caterings.since, caterings.until, caterings.dow,
		        meals.id AS meal_id, meals.name AS meal_name
		 FROM students
		 INNER JOIN student_guardians ON student_guardians.student_id = students.id
		 INNER JOIN group_relations ON group_relations.child = students.id
		 INNER JOIN caterings ON caterings.group_id = group_relations.parent
		 INNER JOIN catering_meals ON catering_meals.catering_id = caterings.id
		 INNER JOIN meals ON meals.id = catering_meals.meal_id
		 WHERE student_guardians.guardian_id = ?
		 ORDER BY students.id, catering_meals.meal_order`,
		guardian.ID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	snapshot := &rosterdomain.Snapshot{
		GuardianID: guardian.ID,
		Fullname:   guardian.Fullname,
	}
	for _, row := range rows {
		grace, err := parseGracePeriod(row.GracePeriod)
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", row.ID, err)
		}
		n := len(snapshot.Students)
		if n == 0 || snapshot.Students[n-1].ID != row.ID {
			snapshot.Students = append(snapshot.Students, rosterdomain.Student{
				ID:          row.ID,
				Name:        row.Name,
				Surname:     row.Surname,
				GracePeriod: grace,
				Starts:      row.Since,
				Ends:        row.Until,
				ActiveDays:  row.Dow,
			})
			n++
		}
		snapshot.Students[n-1].Meals = append(snapshot.Students[n-1].Meals, rosterdomain.Meal{
			ID:   row.MealID,
			Name: row.MealName,
		})
	}
	r.snapshots.Set(phone, snapshot, snapshotTTL)
	return snapshot, nil
}

// parseGracePeriod turns a TIME column value ("07:00:00") into the offset
// from midnight.
func parseGracePeriod(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	layout := "15:04:05"
	if len(value) == len("15:04") {
		layout = "15:04"
	}
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return 0, fmt.Errorf("parse grace period %q: %w", value, err)
	}
	return time.Duration(parsed.Hour())*time.Hour +
		time.Duration(parsed.Minute())*time.Minute +
		time.Duration(parsed.Second())*time.Second, nil
}
