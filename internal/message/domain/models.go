package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Message is one row of the shared inbox/outbox table. Inbound rows are
// written by the SMS gateway and only ever flipped to processed here;
// outbound rows are appended here and consumed by the gateway.
type Message struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	Phone     string        `gorm:"type:text;not null"`
	Content   string        `gorm:"type:text;not null"`
	Outgoing  bool          `gorm:"not null;default:false"`
	Processed bool          `gorm:"not null;default:false"`
	CauseID   *snowflake.ID `gorm:"column:cause_id"`
	Sent      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Message) TableName() string { return "messages" }

// TokenKind tags the classification of one word of an inbound message.
type TokenKind string

const (
	TokenDate      TokenKind = "date"
	TokenStudent   TokenKind = "student"
	TokenMeal      TokenKind = "meal"
	TokenUnknown   TokenKind = "unknown"
	TokenAmbiguous TokenKind = "ambiguous"
)

// Token is the tagged classification of a single word. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Token struct {
	Kind     TokenKind    `json:"kind"`
	Date     time.Time    `json:"date,omitzero"`
	EntityID snowflake.ID `json:"entity_id,omitempty"`
	Word     string       `json:"word,omitempty"`
}

func DateToken(day time.Time) Token         { return Token{Kind: TokenDate, Date: day} }
func StudentToken(id snowflake.ID) Token    { return Token{Kind: TokenStudent, EntityID: id} }
func MealToken(id snowflake.ID) Token       { return Token{Kind: TokenMeal, EntityID: id} }
func UnknownToken(word string) Token        { return Token{Kind: TokenUnknown, Word: word} }
func AmbiguousToken(word string) Token      { return Token{Kind: TokenAmbiguous, Word: word} }

// RequestErrorKind enumerates the expected user-input failure modes.
type RequestErrorKind string

const (
	ErrInvalidTimeRange   RequestErrorKind = "invalid_time_range"
	ErrTooManyDates       RequestErrorKind = "too_many_dates"
	ErrNoDateSpecified    RequestErrorKind = "no_date_specified"
	ErrNoStudentSpecified RequestErrorKind = "no_student_specified"
	ErrUnknownTerm        RequestErrorKind = "unknown_term"
	ErrAmbiguousTerm      RequestErrorKind = "ambiguous_term"
)

// RequestError is a user-input error surfaced as a reply SMS. It flows
// through the pipeline as data, never as a Go error.
type RequestError struct {
	Kind RequestErrorKind `json:"kind"`
	Term string           `json:"term,omitempty"`
}

// CancellationRequest is the structured form of a parsed message. Empty
// StudentIDs or MealIDs means "all applicable".
type CancellationRequest struct {
	Since      time.Time      `json:"since"`
	Until      time.Time      `json:"until"`
	StudentIDs []snowflake.ID `json:"student_ids"`
	MealIDs    []snowflake.ID `json:"meal_ids"`
}

// StudentCancellation is the per-student resolution of a request, clamped to
// the student's enrollment window and grace cutoff.
type StudentCancellation struct {
	StudentID snowflake.ID   `json:"student_id"`
	MealIDs   []snowflake.ID `json:"meal_ids"`
	Since     time.Time      `json:"since"`
	Until     time.Time      `json:"until"`
}

// AttendanceCancellation orders the surviving per-student cancellations.
type AttendanceCancellation struct {
	Students []StudentCancellation `json:"students"`
}

// CancellationResult counts effectively cancelled attendance instances per
// meal for one student, for reply composition.
type CancellationResult struct {
	Name  string           `json:"name"`
	Meals map[string]int64 `json:"meals"`
}

// StateKind tags a persisted pipeline state.
type StateKind string

const (
	StateInit                StateKind = "init"
	StateTokens              StateKind = "tokens"
	StateCancellation        StateKind = "cancellation"
	StateStudentCancellation StateKind = "student_cancellation"
	StateCancellationResult  StateKind = "cancellation_result"
	StateRequestError        StateKind = "request_error"
)

// ProcessingState is one persisted transition of the pipeline state machine,
// keyed by the cause id shared across a whole run. Insertion order is the
// replayable audit trail.
type ProcessingState struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	CauseID   snowflake.ID   `gorm:"not null;index" json:"cause_id"`
	Kind      StateKind      `gorm:"type:text;not null" json:"kind"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ProcessingState) TableName() string { return "processing_states" }
