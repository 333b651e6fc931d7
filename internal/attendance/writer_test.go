package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	attendancedomain "github.com/canteenhq/canteend/internal/attendance/domain"
	"github.com/canteenhq/canteend/internal/attendance/repository"
	"github.com/canteenhq/canteend/internal/clock"
	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
	rosterdomain "github.com/canteenhq/canteend/internal/roster/domain"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE attendance (
			id INTEGER PRIMARY KEY,
			cause_id BIGINT NOT NULL,
			target BIGINT NOT NULL,
			day DATE NOT NULL,
			meal_id BIGINT NOT NULL,
			value BOOLEAN NOT NULL,
			originated TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE attendance_overrides (
			id INTEGER PRIMARY KEY,
			note TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE group_relations (
			child BIGINT NOT NULL,
			parent BIGINT NOT NULL,
			level INTEGER NOT NULL
		)`,
		`CREATE TABLE students (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE meals (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func ledgerDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestWriterSkipsInactiveDays(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := repository.New()
	writer := NewWriter(zap.NewNop(), repo, testNode(t), clock.SystemClock{})

	// Monday through Friday only.
	student := rosterdomain.Student{ID: 1, ActiveDays: 0b0011111}
	cancellation := messagedomain.AttendanceCancellation{
		Students: []messagedomain.StudentCancellation{{
			StudentID: 1,
			// 2025-01-03 is a Friday, 2025-01-06 a Monday.
			Since:   ledgerDay(2025, time.January, 3),
			Until:   ledgerDay(2025, time.January, 6),
			MealIDs: []snowflake.ID{10},
		}},
	}

	err := writer.Write(context.Background(), db, 500, cancellation, []rosterdomain.Student{student})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var records []attendancedomain.Record
	if err := db.Order("day").Find(&records).Error; err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("weekend days must be skipped, got %d rows", len(records))
	}
	for _, record := range records {
		if record.Value {
			t.Fatalf("cancellation rows must carry value=false, got %+v", record)
		}
		if record.CauseID != 500 {
			t.Fatalf("cause_id = %d, want 500", record.CauseID)
		}
	}
}

func TestWriterOneRowPerMealAndDay(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := repository.New()
	writer := NewWriter(zap.NewNop(), repo, testNode(t), clock.SystemClock{})

	student := rosterdomain.Student{ID: 1, ActiveDays: 0b1111111}
	cancellation := messagedomain.AttendanceCancellation{
		Students: []messagedomain.StudentCancellation{{
			StudentID: 1,
			Since:     ledgerDay(2025, time.March, 10),
			Until:     ledgerDay(2025, time.March, 11),
			MealIDs:   []snowflake.ID{10, 11},
		}},
	}

	err := writer.Write(context.Background(), db, 500, cancellation, []rosterdomain.Student{student})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var count int64
	if err := db.Model(&attendancedomain.Record{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 4 {
		t.Fatalf("2 days x 2 meals = 4 rows, got %d", count)
	}
}

func TestWriterEmptyCancellationWritesNothing(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := repository.New()
	writer := NewWriter(zap.NewNop(), repo, testNode(t), clock.SystemClock{})

	err := writer.Write(context.Background(), db, 500, messagedomain.AttendanceCancellation{}, nil)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var count int64
	if err := db.Model(&attendancedomain.Record{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}
}
