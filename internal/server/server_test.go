package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/canteenhq/canteend/internal/attendance"
	attendancerepo "github.com/canteenhq/canteend/internal/attendance/repository"
	"github.com/canteenhq/canteend/internal/config"
	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
	messagerepo "github.com/canteenhq/canteend/internal/message/repository"
)

func setupServerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE messages (
			id INTEGER PRIMARY KEY,
			phone TEXT NOT NULL,
			content TEXT NOT NULL,
			outgoing BOOLEAN NOT NULL DEFAULT FALSE,
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			cause_id BIGINT,
			sent TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE processing_states (
			id INTEGER PRIMARY KEY,
			cause_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
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
		`CREATE TABLE students (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE meals (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	cfg := config.Config{Environment: "test", HTTPAddr: ":0"}
	srv := NewServer(Params{
		Config:   cfg,
		DB:       db,
		Log:      zap.NewNop(),
		Messages: messagerepo.New(node),
		Resolver: attendance.NewResolver(zap.NewNop(), attendancerepo.New()),
	})
	engine := NewEngine(cfg, node)
	srv.RegisterAPIRoutes(engine)
	return engine, db
}

func TestResponsesCarryRequestID(t *testing.T) {
	engine, _ := setupServerTest(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header")
	}
}

func TestGetProcessingStates(t *testing.T) {
	engine, db := setupServerTest(t)

	node, _ := snowflake.NewNode(2)
	repo := messagerepo.New(node)
	if err := repo.SaveState(context.Background(), db, 7, messagedomain.StateInit, struct{}{}); err != nil {
		t.Fatalf("save state: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages/7/processing", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"kind":"init"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRequeueMessage(t *testing.T) {
	engine, db := setupServerTest(t)

	msg := messagedomain.Message{
		ID: 9, Phone: "+48123456789", Content: "x",
		Processed: true,
		Sent:      time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&msg).Error; err != nil {
		t.Fatalf("insert message: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages/9/requeue", nil)
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var reloaded messagedomain.Message
	if err := db.First(&reloaded, "id = ?", 9).Error; err != nil {
		t.Fatalf("load message: %v", err)
	}
	if reloaded.Processed {
		t.Fatal("requeue must clear the processed flag")
	}
}

func TestRequeueUnknownMessage(t *testing.T) {
	engine, _ := setupServerTest(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages/12345/requeue", nil)
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetEffectiveMonth(t *testing.T) {
	engine, db := setupServerTest(t)

	if err := db.Exec(`INSERT INTO group_relations (child, parent, level) VALUES (1, 1, 0)`).Error; err != nil {
		t.Fatalf("insert relation: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO attendance (id, cause_id, target, day, meal_id, value, originated)
		 VALUES (1, 200, 1, ?, 10, false, ?)`,
		time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC),
	).Error; err != nil {
		t.Fatalf("insert ledger row: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/attendance/1/effective?year=2025&month=6", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"cancelled"`) || !strings.Contains(body, `"day":"2025-06-15"`) {
		t.Fatalf("body = %s", body)
	}
}

func TestGetEffectiveMonthInvalidMonth(t *testing.T) {
	engine, _ := setupServerTest(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/attendance/1/effective?year=2025&month=13", nil)
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
