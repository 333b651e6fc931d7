package repository

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/canteenhq/canteend/internal/config"
)

func setupRosterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE guardians (id INTEGER PRIMARY KEY, fullname TEXT NOT NULL, phone TEXT)`,
		`CREATE TABLE students (id INTEGER PRIMARY KEY, name TEXT NOT NULL, surname TEXT NOT NULL)`,
		`CREATE TABLE student_guardians (
			student_id BIGINT NOT NULL,
			guardian_id BIGINT NOT NULL
		)`,
		`CREATE TABLE group_relations (
			child BIGINT NOT NULL,
			parent BIGINT NOT NULL,
			level INTEGER NOT NULL
		)`,
		`CREATE TABLE meals (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE caterings (
			id INTEGER PRIMARY KEY,
			group_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			grace_period TEXT NOT NULL,
			since DATE NOT NULL,
			until DATE NOT NULL,
			dow INTEGER NOT NULL
		)`,
		`CREATE TABLE catering_meals (
			catering_id BIGINT NOT NULL,
			meal_id BIGINT NOT NULL,
			meal_order INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func seedRoster(t *testing.T, db *gorm.DB, phone string) {
	t.Helper()
	statements := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO guardians (id, fullname, phone) VALUES (50, 'Anna Kowalska', ?)`, []any{phone}},
		{`INSERT INTO students (id, name, surname) VALUES (1, 'Kamil', 'Kowalski')`, nil},
		{`INSERT INTO student_guardians (student_id, guardian_id) VALUES (1, 50)`, nil},
		{`INSERT INTO group_relations (child, parent, level) VALUES (1, 1, 0), (1, 2, 1), (2, 2, 0)`, nil},
		{`INSERT INTO meals (id, name) VALUES (10, 'Obiad'), (11, 'Śniadanie')`, nil},
		{`INSERT INTO caterings (id, group_id, name, grace_period, since, until, dow)
		  VALUES (3, 2, 'Stołówka', '07:00:00', '2024-09-01', '2025-06-30', 31)`, nil},
		{`INSERT INTO catering_meals (catering_id, meal_id, meal_order) VALUES (3, 11, 0), (3, 10, 1)`, nil},
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt.query, stmt.args...).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func newRosterRepo() *Repository {
	repo := New(zap.NewNop(), config.Config{PhonePrefix: "+48"})
	return repo.(*Repository)
}

func TestSnapshotByPhone(t *testing.T) {
	db := setupRosterTestDB(t)
	seedRoster(t, db, "+48123456789")
	repo := newRosterRepo()

	snapshot, err := repo.SnapshotByPhone(context.Background(), db, "+48123456789")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot == nil {
		t.Fatal("expected a snapshot")
	}
	if snapshot.GuardianID != 50 || snapshot.Fullname != "Anna Kowalska" {
		t.Fatalf("guardian = %+v", snapshot)
	}
	if len(snapshot.Students) != 1 {
		t.Fatalf("expected 1 student, got %d", len(snapshot.Students))
	}

	student := snapshot.Students[0]
	if student.Name != "Kamil" || student.Surname != "Kowalski" {
		t.Fatalf("student = %+v", student)
	}
	if student.GracePeriod != 7*time.Hour {
		t.Fatalf("grace = %v, want 7h", student.GracePeriod)
	}
	if student.ActiveDays != 31 {
		t.Fatalf("active days = %d, want 31", student.ActiveDays)
	}
	if len(student.Meals) != 2 || student.Meals[0].Name != "Śniadanie" || student.Meals[1].Name != "Obiad" {
		t.Fatalf("meals must follow meal_order, got %+v", student.Meals)
	}
}

func TestSnapshotByPhoneBareStoredNumber(t *testing.T) {
	db := setupRosterTestDB(t)
	// Number stored without the international prefix.
	seedRoster(t, db, "123456789")
	repo := newRosterRepo()

	snapshot, err := repo.SnapshotByPhone(context.Background(), db, "+48123456789")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot == nil || snapshot.GuardianID != 50 {
		t.Fatalf("prefixed lookup must find the bare number, got %+v", snapshot)
	}
}

func TestSnapshotByPhoneUnknownSender(t *testing.T) {
	db := setupRosterTestDB(t)
	seedRoster(t, db, "+48123456789")
	repo := newRosterRepo()

	snapshot, err := repo.SnapshotByPhone(context.Background(), db, "+48000000000")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("unknown sender must yield nil, got %+v", snapshot)
	}
}

func TestSnapshotByPhoneCachesBriefly(t *testing.T) {
	db := setupRosterTestDB(t)
	seedRoster(t, db, "+48123456789")
	repo := newRosterRepo()

	first, err := repo.SnapshotByPhone(context.Background(), db, "+48123456789")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := db.Exec(`DELETE FROM guardians`).Error; err != nil {
		t.Fatalf("delete guardian: %v", err)
	}

	second, err := repo.SnapshotByPhone(context.Background(), db, "+48123456789")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if second == nil || second.GuardianID != first.GuardianID {
		t.Fatalf("expected the cached snapshot, got %+v", second)
	}
}
