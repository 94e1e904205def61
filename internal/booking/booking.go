// Package booking creates matches on scheduled slots.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/club"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/games"
	"github.com/mauv0809/munitorum/internal/matches"
	"github.com/mauv0809/munitorum/internal/metrics"
	"github.com/mauv0809/munitorum/internal/notifier"
	"github.com/mauv0809/munitorum/internal/pubsub"
	"github.com/mauv0809/munitorum/internal/slotdays"
)

var (
	ErrInvalidFormat        = dates.ErrInvalidFormat
	ErrNotASlotDay          = errors.New("booking: date is not a slot day")
	ErrMissingPlayer        = errors.New("booking: two players are required")
	ErrSamePlayer           = matches.ErrSamePlayer
	ErrUnknownActivity      = errors.New("booking: unknown game")
	ErrNoSlot               = errors.New("booking: no slot for date")
	ErrSlotClosed           = errors.New("booking: slot is closed")
	ErrDuplicateParticipant = matches.ErrDuplicateParticipant
)

// Request asks for a match between two players. The slot comes from
// DateText, or from ThreadID when the request was posted in a slot thread;
// in the latter case GameInput may be empty and the thread's game is used.
type Request struct {
	DateText  string
	ThreadID  string
	Player1   string
	Player2   string
	GameInput string
}

// Engine is the match booking engine.
type Engine struct {
	events     events.EventStore
	policy     slotdays.Store
	catalog    *games.Catalog
	matches    matches.MatchStore
	club       club.ClubStore
	messenger  notifier.Messenger
	dispatcher *notifier.Dispatcher
	pubsub     pubsub.PubSubClient
	metrics    metrics.Metrics
	loc        *time.Location
}

// New creates a booking engine.
func New(
	eventStore events.EventStore,
	policy slotdays.Store,
	catalog *games.Catalog,
	matchStore matches.MatchStore,
	clubStore club.ClubStore,
	messenger notifier.Messenger,
	dispatcher *notifier.Dispatcher,
	pubsubClient pubsub.PubSubClient,
	metricsSvc metrics.Metrics,
	loc *time.Location,
) *Engine {
	return &Engine{
		events:     eventStore,
		policy:     policy,
		catalog:    catalog,
		matches:    matchStore,
		club:       clubStore,
		messenger:  messenger,
		dispatcher: dispatcher,
		pubsub:     pubsubClient,
		metrics:    metricsSvc,
		loc:        loc,
	}
}

// CreateMatch books a PENDING match. Preconditions are checked in a fixed
// order and the first failing one is returned.
func (e *Engine) CreateMatch(ctx context.Context, req Request) (*matches.Match, error) {
	m, err := e.createMatch(ctx, req)
	if err != nil {
		e.metrics.IncBookingRefused(RefusalKind(err))
		log.Info("Booking refused", "reason", RefusalKind(err), "error", err, "player1", req.Player1, "player2", req.Player2)
		return nil, err
	}
	return m, nil
}

func (e *Engine) createMatch(ctx context.Context, req Request) (*matches.Match, error) {
	var (
		date       time.Time
		threadSlot *events.Slot
		threadGame string
	)
	if strings.TrimSpace(req.DateText) == "" && req.ThreadID != "" {
		slot, gameCode, err := e.events.FindByThread(ctx, req.ThreadID)
		if errors.Is(err, events.ErrNotFound) {
			return nil, ErrNoSlot
		}
		if err != nil {
			return nil, err
		}
		date, threadSlot, threadGame = slot.Date, slot, gameCode
	} else {
		parsed, err := dates.Parse(req.DateText, e.loc)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	days, err := e.policy.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !slotdays.IsSlotDay(date, days) {
		return nil, ErrNotASlotDay
	}

	if req.Player1 == "" || req.Player2 == "" {
		return nil, ErrMissingPlayer
	}
	if req.Player1 == req.Player2 {
		return nil, ErrSamePlayer
	}

	var game games.Game
	if strings.TrimSpace(req.GameInput) == "" && threadGame != "" {
		g, ok := e.catalog.Lookup(threadGame)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, threadGame)
		}
		game = g
	} else {
		g, err := e.catalog.Resolve(req.GameInput)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, req.GameInput)
		}
		game = g
	}

	slot := threadSlot
	if slot == nil {
		slot, err = e.events.GetByDate(ctx, date)
		if errors.Is(err, events.ErrNotFound) {
			return nil, ErrNoSlot
		}
		if err != nil {
			return nil, err
		}
	}
	if !slot.Bookable() {
		return nil, ErrSlotClosed
	}

	e.refreshProfiles(ctx, req.Player1, req.Player2)

	m := &matches.Match{
		SlotID:   slot.ID,
		SlotDate: slot.Date,
		Player1:  req.Player1,
		Player2:  req.Player2,
		GameCode: game.Code,
		ThreadID: e.threadFor(ctx, slot.ID, game.Code),
	}
	if err := e.matches.CreateIfNoConflict(ctx, m); err != nil {
		return nil, err
	}

	e.metrics.IncMatchesBooked()
	log.Info("Match booked", "matchID", m.ID, "date", dates.Key(slot.Date), "game", game.Code)

	e.dispatcher.NotifyMatch(ctx, m, notifier.BookedDelivery(m, game.Label))
	event := pubsub.MatchEvent{
		MatchID:  m.ID,
		SlotDate: dates.Key(m.SlotDate),
		Player1:  m.Player1,
		Player2:  m.Player2,
		GameCode: m.GameCode,
		Status:   string(m.Status),
	}
	if err := e.pubsub.SendMessage(pubsub.EventMatchBooked, event); err != nil {
		log.Warn("Failed to publish match booked event", "error", err, "matchID", m.ID)
	}
	return m, nil
}

// refreshProfiles records both players, refreshing their display names when
// the chat platform answers.
func (e *Engine) refreshProfiles(ctx context.Context, players ...string) {
	for _, id := range players {
		name, err := e.messenger.ResolveDisplayName(ctx, id)
		if err != nil {
			log.Debug("Could not resolve display name", "error", err, "player", id)
			name = ""
		}
		if _, err := e.club.UpsertPlayer(ctx, id, name); err != nil {
			log.Error("Failed to upsert player", "error", err, "player", id)
		}
	}
}

func (e *Engine) threadFor(ctx context.Context, slotID, gameCode string) string {
	threads, err := e.events.Threads(ctx, slotID)
	if err != nil {
		log.Warn("Failed to list slot threads", "error", err, "slotID", slotID)
		return ""
	}
	for _, t := range threads {
		if t.GameCode == gameCode {
			return t.ThreadID
		}
	}
	return ""
}

// RefusalKind names the failure for metrics and logs.
func RefusalKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrNotASlotDay):
		return "not_slot_day"
	case errors.Is(err, ErrMissingPlayer):
		return "missing_player"
	case errors.Is(err, ErrSamePlayer):
		return "same_player"
	case errors.Is(err, ErrUnknownActivity):
		return "unknown_activity"
	case errors.Is(err, ErrNoSlot):
		return "no_slot"
	case errors.Is(err, ErrSlotClosed):
		return "slot_closed"
	case errors.Is(err, ErrDuplicateParticipant):
		return "duplicate_participant"
	default:
		return "internal"
	}
}
