// Package scheduler opens slots on the configured weekdays, provisions their
// chat threads, administers table counts and deletes slots on confirmation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/games"
	"github.com/mauv0809/munitorum/internal/metrics"
	"github.com/mauv0809/munitorum/internal/notifier"
	"github.com/mauv0809/munitorum/internal/pubsub"
	"github.com/mauv0809/munitorum/internal/slotdays"
	"github.com/mauv0809/munitorum/internal/vacations"
)

// Service is the slot scheduler.
type Service struct {
	events    events.EventStore
	policy    slotdays.Store
	resolver  vacations.ClosureResolver
	catalog   *games.Catalog
	messenger notifier.Messenger
	pubsub    pubsub.PubSubClient
	metrics   metrics.Metrics
	cfg       Config
	now       func() time.Time
}

// New creates a scheduler.
func New(
	eventStore events.EventStore,
	policy slotdays.Store,
	resolver vacations.ClosureResolver,
	catalog *games.Catalog,
	messenger notifier.Messenger,
	pubsubClient pubsub.PubSubClient,
	metricsSvc metrics.Metrics,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{
		events:    eventStore,
		policy:    policy,
		resolver:  resolver,
		catalog:   catalog,
		messenger: messenger,
		pubsub:    pubsubClient,
		metrics:   metricsSvc,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock replaces the clock deciding the current month.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Policy returns the stored weekday policy.
func (s *Service) Policy(ctx context.Context) (slotdays.Weekdays, error) {
	return s.policy.Get(ctx)
}

// SetPolicy replaces the weekday policy.
func (s *Service) SetPolicy(ctx context.Context, days slotdays.Weekdays) error {
	return s.policy.Set(ctx, days)
}

// GenerateMonth fills the current month with slots on every policy weekday.
// Existing slots are never modified; OPEN ones get their missing threads.
// Closed dates are skipped. With a nil days the stored policy is used.
func (s *Service) GenerateMonth(ctx context.Context, days slotdays.Weekdays) (GenerateResult, error) {
	if days == nil {
		var err error
		if days, err = s.policy.Get(ctx); err != nil {
			return GenerateResult{}, err
		}
	}

	now := s.now().In(s.cfg.Location)
	first, _ := dates.MonthBounds(now)
	result := GenerateResult{Month: first}

	for _, day := range dates.MonthDays(now) {
		if !slotdays.IsSlotDay(day, days) {
			continue
		}

		slot, err := s.events.GetByDate(ctx, day)
		switch {
		case err == nil:
			result.AlreadyPresent = append(result.AlreadyPresent, day)
			if slot.Status == events.StatusOpen {
				s.EnsureThreads(ctx, slot)
			}
			continue
		case !errors.Is(err, events.ErrNotFound):
			return result, fmt.Errorf("failed to read slot %s: %w", dates.Key(day), err)
		}

		closure := s.resolver.ResolveClosure(ctx, day, s.cfg.Region, s.cfg.Location)
		if closure.Closed {
			log.Info("Skipping closed date", "date", dates.Key(day), "reason", closure.Reason)
			result.ClosedSkipped = append(result.ClosedSkipped, day)
			continue
		}

		slot, err = s.events.Create(ctx, day)
		if errors.Is(err, events.ErrAlreadyExists) {
			result.AlreadyPresent = append(result.AlreadyPresent, day)
			continue
		}
		if err != nil {
			return result, err
		}
		result.Created = append(result.Created, day)
		s.EnsureThreads(ctx, slot)
	}

	s.metrics.AddSlotsGenerated(len(result.Created), len(result.AlreadyPresent), len(result.ClosedSkipped))
	log.Info("Generated month", "month", dates.MonthKey(first),
		"created", len(result.Created), "alreadyPresent", len(result.AlreadyPresent), "closedSkipped", len(result.ClosedSkipped))

	event := pubsub.SlotsEvent{
		Scope:          dates.MonthKey(first),
		Created:        keys(result.Created),
		AlreadyPresent: keys(result.AlreadyPresent),
		ClosedSkipped:  keys(result.ClosedSkipped),
	}
	if err := s.pubsub.SendMessage(pubsub.EventSlotsGenerated, event); err != nil {
		log.Warn("Failed to publish slots generated event", "error", err)
	}
	return result, nil
}

// EnsureThreads creates the thread of every active game the slot does not
// have yet. Failures are logged and the game is left for the next run. A dry
// run records nothing, so the next real run still provisions every game.
func (s *Service) EnsureThreads(ctx context.Context, slot *events.Slot) int {
	existing, err := s.events.Threads(ctx, slot.ID)
	if err != nil {
		log.Error("Failed to list slot threads", "error", err, "slotID", slot.ID)
		return 0
	}
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.GameCode] = true
	}

	created := 0
	for _, game := range s.catalog.Active() {
		if have[game.Code] {
			continue
		}
		title := notifier.ThreadTitle(game.Label, slot.Date)
		threadID, err := s.messenger.CreateThreadUnder(ctx, s.cfg.ChannelID, title, threadIntro(game.Label, slot.Date))
		if err != nil {
			log.Warn("Failed to create slot thread", "error", err, "date", dates.Key(slot.Date), "game", game.Code)
			continue
		}
		if notifier.IsDryRun(ctx) {
			log.Info("[Dry Run] Would record slot thread", "date", dates.Key(slot.Date), "game", game.Code)
			continue
		}
		if err := s.events.SaveThread(ctx, events.Thread{SlotID: slot.ID, GameCode: game.Code, ThreadID: threadID}); err != nil {
			log.Error("Failed to record slot thread", "error", err, "threadID", threadID)
			continue
		}
		log.Debug("Provisioned slot thread", "date", dates.Key(slot.Date), "game", game.Code, "threadID", threadID)
		created++
	}
	return created
}

// ListMonth returns the slots of the current month.
func (s *Service) ListMonth(ctx context.Context) ([]events.Slot, error) {
	first, last := dates.MonthBounds(s.now().In(s.cfg.Location))
	return s.events.ListBetween(ctx, first, last)
}

func threadIntro(gameLabel string, date time.Time) string {
	return fmt.Sprintf("Parties de %s du %s. Pour enregistrer une partie, mentionnez-moi ici : `@bot @joueur1 vs @joueur2`.",
		gameLabel, dates.Format(date))
}

func keys(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = dates.Key(d)
	}
	return out
}
