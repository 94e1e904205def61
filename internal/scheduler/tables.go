package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/slotdays"
)

// SetTables is the administrative capacity update. The slot is created when
// missing and closed when count is zero or the date falls in a closure.
func (s *Service) SetTables(ctx context.Context, date time.Time, count int) (TablesResult, error) {
	days, err := s.policy.Get(ctx)
	if err != nil {
		return TablesResult{}, err
	}
	if !slotdays.IsSlotDay(date, days) {
		return TablesResult{}, ErrNotASlotDay
	}

	closure := s.resolver.ResolveClosure(ctx, date, s.cfg.Region, s.cfg.Location)
	slot, err := s.events.Upsert(ctx, date, count, closure.Closed)
	if err != nil {
		return TablesResult{}, err
	}
	log.Info("Tables updated", "date", dates.Key(slot.Date), "tables", slot.TableCount, "status", slot.Status, "closure", closure.Reason)

	if slot.Status == events.StatusOpen {
		s.EnsureThreads(ctx, slot)
	}
	return TablesResult{Slot: slot, Closure: closure}, nil
}

// ShowTables returns the slot scheduled on date.
func (s *Service) ShowTables(ctx context.Context, date time.Time) (*events.Slot, error) {
	slot, err := s.events.GetByDate(ctx, date)
	if errors.Is(err, events.ErrNotFound) {
		return nil, ErrNoSlot
	}
	return slot, err
}
