package events

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// Status is the bookability of a slot.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

var (
	// ErrNotFound is returned when no slot matches.
	ErrNotFound = errors.New("events: slot not found")
	// ErrAlreadyExists is returned when a slot already exists for the date.
	ErrAlreadyExists = errors.New("events: slot already exists for date")
	// ErrNegativeTables is returned for a negative table count.
	ErrNegativeTables = errors.New("events: table count cannot be negative")
	// ErrPlanOutdated is returned when a deletion no longer removes what was planned.
	ErrPlanOutdated = errors.New("events: deletion plan is outdated")
)

// Slot is one calendar date that may host matches.
type Slot struct {
	ID              string    `json:"id"`
	Date            time.Time `json:"date"`
	TableCount      int       `json:"table_count"`
	Status          Status    `json:"status"`
	VacationClosure bool      `json:"vacation_closure"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StatusFor derives the status a slot must have: CLOSED when it has no table
// or the date is closed, OPEN otherwise.
func StatusFor(tableCount int, closed bool) Status {
	if tableCount <= 0 || closed {
		return StatusClosed
	}
	return StatusOpen
}

// Bookable reports whether matches can be created on the slot.
func (s Slot) Bookable() bool {
	return s.Status == StatusOpen && s.TableCount > 0
}

// Thread links a slot to the chat thread of one game.
type Thread struct {
	SlotID   string
	GameCode string
	ThreadID string
}

// Dependents counts what a cascading delete removes.
type Dependents struct {
	Slots         int
	Matches       int
	Notifications int
	ThreadIDs     []string
}

// store handles all database operations for slots.
type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	loc *time.Location
}
