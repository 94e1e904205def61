package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/pubsub"
)

// Key identifies the plan's scope and the counts shown to the administrator,
// e.g. "date:2024-02-09:1:2:4" or "month:2024-02:3:0:0". Presenting it back
// to ConfirmDeletion runs the deletion as long as the counts still hold.
func (p DeletionPlan) Key() string {
	return fmt.Sprintf("%s:%d:%d:%d", p.scopeKey(), p.Slots, p.Matches, p.Notifications)
}

func (p DeletionPlan) scopeKey() string {
	if p.Scope == ScopeMonth {
		return string(ScopeMonth) + ":" + dates.MonthKey(p.From)
	}
	return string(ScopeDate) + ":" + dates.Key(p.From)
}

// PlanDeleteDate counts what deleting the slot on date would remove.
func (s *Service) PlanDeleteDate(ctx context.Context, date time.Time) (DeletionPlan, error) {
	day := dates.StartOfDay(date, s.cfg.Location)
	return s.plan(ctx, ScopeDate, day, day)
}

// PlanDeleteMonth counts what deleting every slot of the current month would remove.
func (s *Service) PlanDeleteMonth(ctx context.Context) (DeletionPlan, error) {
	first, last := dates.MonthBounds(s.now().In(s.cfg.Location))
	return s.plan(ctx, ScopeMonth, first, last)
}

func (s *Service) plan(ctx context.Context, scope DeletionScope, from, to time.Time) (DeletionPlan, error) {
	deps, err := s.events.CountDependents(ctx, from, to)
	if err != nil {
		return DeletionPlan{}, err
	}
	if deps.Slots == 0 {
		return DeletionPlan{}, ErrNoSlot
	}
	return DeletionPlan{
		Scope:         scope,
		From:          from,
		To:            to,
		Slots:         deps.Slots,
		Matches:       deps.Matches,
		Notifications: deps.Notifications,
	}, nil
}

// ParseDeletionKey rebuilds the plan a key was issued for. Month keys are
// only valid for the current month.
func (s *Service) ParseDeletionKey(key string) (DeletionPlan, error) {
	invalid := fmt.Errorf("%w: %q", ErrInvalidDeletionKey, key)
	parts := strings.Split(strings.TrimSpace(key), ":")
	if len(parts) != 5 {
		return DeletionPlan{}, invalid
	}

	var counts [3]int
	for i, raw := range parts[2:] {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return DeletionPlan{}, invalid
		}
		counts[i] = n
	}
	plan := DeletionPlan{Slots: counts[0], Matches: counts[1], Notifications: counts[2]}
	if plan.Slots == 0 {
		return DeletionPlan{}, invalid
	}

	switch DeletionScope(parts[0]) {
	case ScopeDate:
		day, err := dates.FromKey(parts[1], s.cfg.Location)
		if err != nil {
			return DeletionPlan{}, invalid
		}
		plan.Scope, plan.From, plan.To = ScopeDate, day, day
	case ScopeMonth:
		month, err := dates.ParseMonthKey(parts[1], s.cfg.Location)
		if err != nil {
			return DeletionPlan{}, invalid
		}
		first, last := dates.MonthBounds(month)
		current, _ := dates.MonthBounds(s.now().In(s.cfg.Location))
		if !first.Equal(current) {
			return DeletionPlan{}, invalid
		}
		plan.Scope, plan.From, plan.To = ScopeMonth, first, last
	default:
		return DeletionPlan{}, invalid
	}
	return plan, nil
}

// ConfirmDeletion executes the plan identified by key. Slots, matches,
// notifications and thread links go in one transaction, and only if the
// counts are still the ones the key was issued with. The chat threads are
// archived afterwards and failures there do not undo the deletion.
func (s *Service) ConfirmDeletion(ctx context.Context, key string) (DeletionResult, error) {
	plan, err := s.ParseDeletionKey(key)
	if err != nil {
		return DeletionResult{}, err
	}

	deps, err := s.events.DeleteCascade(ctx, plan.From, plan.To, events.Dependents{
		Slots:         plan.Slots,
		Matches:       plan.Matches,
		Notifications: plan.Notifications,
	})
	if err != nil {
		return DeletionResult{}, err
	}
	if deps.Slots == 0 {
		return DeletionResult{}, ErrNoSlot
	}

	result := DeletionResult{Plan: plan}
	for _, threadID := range deps.ThreadIDs {
		if err := s.messenger.ArchiveAndDelete(ctx, threadID); err != nil {
			log.Warn("Failed to archive slot thread", "error", err, "threadID", threadID)
			result.ThreadsFailed++
			continue
		}
		result.ThreadsArchived++
	}
	log.Info("Deleted slots", "key", key, "slots", deps.Slots, "matches", deps.Matches,
		"notifications", deps.Notifications, "threadsArchived", result.ThreadsArchived)

	event := pubsub.SlotsEvent{Scope: plan.scopeKey(), DeletedSlots: deps.Slots, DeletedMatches: deps.Matches}
	if err := s.pubsub.SendMessage(pubsub.EventSlotsDeleted, event); err != nil {
		log.Warn("Failed to publish slots deleted event", "error", err)
	}
	return result, nil
}
