package scheduler

import (
	"errors"
	"time"

	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/vacations"
)

var (
	// ErrNotASlotDay is returned when the date's weekday is not in the policy.
	ErrNotASlotDay = errors.New("scheduler: date is not a slot day")
	// ErrNoSlot is returned when nothing is scheduled for the requested scope.
	ErrNoSlot = errors.New("scheduler: no slot for date")
	// ErrInvalidDeletionKey is returned when a confirmation key cannot be parsed.
	ErrInvalidDeletionKey = errors.New("scheduler: invalid deletion key")
)

// Config holds the scheduler's fixed settings.
type Config struct {
	Location  *time.Location
	Region    string
	ChannelID string
}

// GenerateResult reports what GenerateMonth did, in ascending date order.
type GenerateResult struct {
	Month          time.Time
	Created        []time.Time
	AlreadyPresent []time.Time
	ClosedSkipped  []time.Time
}

// TablesResult is the outcome of an administrative table update.
type TablesResult struct {
	Slot    *events.Slot
	Closure vacations.ClosureInfo
}

// DeletionScope says whether a plan targets one date or a whole month.
type DeletionScope string

const (
	ScopeDate  DeletionScope = "date"
	ScopeMonth DeletionScope = "month"
)

// DeletionPlan describes a pending deletion. Nothing is removed until the
// plan's key is confirmed.
type DeletionPlan struct {
	Scope         DeletionScope
	From          time.Time
	To            time.Time
	Slots         int
	Matches       int
	Notifications int
}

// DeletionResult is what a confirmed deletion removed.
type DeletionResult struct {
	Plan            DeletionPlan
	ThreadsArchived int
	ThreadsFailed   int
}
