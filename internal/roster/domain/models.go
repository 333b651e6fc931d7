package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Meal is an immutable snapshot of a meal a student is enrolled for.
type Meal struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
}

// Student is the immutable per-message snapshot of an enrolled student, as
// seen through the sender's guardian record. GracePeriod is the time-of-day
// cutoff before which next-day cancellations are still accepted; Starts/Ends
// is the enrollment window inherited from the student's catering. ActiveDays
// is the catering weekday bitmask, bit 0 = Monday through bit 6 = Sunday.
type Student struct {
	ID          snowflake.ID  `json:"id"`
	Name        string        `json:"name"`
	Surname     string        `json:"surname"`
	GracePeriod time.Duration `json:"grace_period"`
	Starts      time.Time     `json:"starts"`
	Ends        time.Time     `json:"ends"`
	ActiveDays  int           `json:"active_days"`
	Meals       []Meal        `json:"meals"`
}

// ActiveOn reports whether the student's catering serves on the given day.
func (s Student) ActiveOn(day time.Time) bool {
	idx := (int(day.Weekday()) + 6) % 7
	return s.ActiveDays>>idx&1 == 1
}

// Snapshot is the roster view handed to the pipeline for one inbound message.
type Snapshot struct {
	GuardianID snowflake.ID
	Fullname   string
	Students   []Student
}
