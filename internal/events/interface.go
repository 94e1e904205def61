package events

import (
	"context"
	"time"
)

// EventStore persists slots keyed by their unique date.
type EventStore interface {
	GetByDate(ctx context.Context, date time.Time) (*Slot, error)
	GetByID(ctx context.Context, id string) (*Slot, error)
	FindByThread(ctx context.Context, threadID string) (*Slot, string, error)
	Create(ctx context.Context, date time.Time) (*Slot, error)
	Upsert(ctx context.Context, date time.Time, tableCount int, vacationClosure bool) (*Slot, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Slot, error)
	SaveThread(ctx context.Context, thread Thread) error
	Threads(ctx context.Context, slotID string) ([]Thread, error)
	CountDependents(ctx context.Context, from, to time.Time) (Dependents, error)
	DeleteCascade(ctx context.Context, from, to time.Time, expected Dependents) (Dependents, error)
}
