// Package lifecycle moves matches through their approval states.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/admin"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/games"
	"github.com/mauv0809/munitorum/internal/matches"
	"github.com/mauv0809/munitorum/internal/metrics"
	"github.com/mauv0809/munitorum/internal/notifier"
	"github.com/mauv0809/munitorum/internal/pubsub"
)

var (
	ErrMatchNotFound = errors.New("lifecycle: match not found")
	ErrUnauthorized  = errors.New("lifecycle: actor is not allowed to change this match")
)

// Result is the outcome of a transition request. Changed is false when the
// match was already past the requested transition; Match then holds its
// current state.
type Result struct {
	Match    *matches.Match
	Changed  bool
	Previous matches.Status
}

// Service is the match state machine.
type Service struct {
	matches    matches.MatchStore
	admin      admin.Checker
	catalog    *games.Catalog
	dispatcher *notifier.Dispatcher
	pubsub     pubsub.PubSubClient
	metrics    metrics.Metrics
}

// New creates a lifecycle service.
func New(matchStore matches.MatchStore, checker admin.Checker, catalog *games.Catalog, dispatcher *notifier.Dispatcher, pubsubClient pubsub.PubSubClient, metricsSvc metrics.Metrics) *Service {
	return &Service{
		matches:    matchStore,
		admin:      checker,
		catalog:    catalog,
		dispatcher: dispatcher,
		pubsub:     pubsubClient,
		metrics:    metricsSvc,
	}
}

// Approve moves a PENDING match to APPROVED. Administrators only.
func (s *Service) Approve(ctx context.Context, matchID, actor string) (Result, error) {
	return s.transition(ctx, matchID, actor, "", matches.StatusApproved, false, matches.StatusPending)
}

// Reject moves a PENDING match to REJECTED. Administrators only.
func (s *Service) Reject(ctx context.Context, matchID, actor, reason string) (Result, error) {
	return s.transition(ctx, matchID, actor, reason, matches.StatusRejected, false, matches.StatusPending)
}

// Cancel moves a PENDING or APPROVED match to CANCELLED. Administrators and
// the two players may cancel.
func (s *Service) Cancel(ctx context.Context, matchID, actor, reason string) (Result, error) {
	return s.transition(ctx, matchID, actor, reason, matches.StatusCancelled, true, matches.StatusPending, matches.StatusApproved)
}

func (s *Service) transition(ctx context.Context, matchID, actor, reason string, to matches.Status, participantsAllowed bool, from ...matches.Status) (Result, error) {
	m, err := s.matches.Get(ctx, matchID)
	if errors.Is(err, matches.ErrNotFound) {
		return Result{}, ErrMatchNotFound
	}
	if err != nil {
		return Result{}, err
	}

	if !(participantsAllowed && m.HasParticipant(actor)) && !s.isAdmin(ctx, actor) {
		log.Info("Transition refused", "matchID", matchID, "actor", actor, "to", to)
		return Result{}, ErrUnauthorized
	}

	previous := m.Status
	if !slices.Contains(from, previous) {
		log.Info("Transition is a no-op", "matchID", matchID, "status", previous, "requested", to)
		return Result{Match: m, Previous: previous}, nil
	}

	changed, err := s.matches.UpdateStatus(ctx, matchID, from, to, actor, reason)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		// Another transition won the race; report the state it left.
		current, err := s.matches.Get(ctx, matchID)
		if err != nil {
			return Result{}, err
		}
		log.Info("Transition lost a race", "matchID", matchID, "status", current.Status, "requested", to)
		return Result{Match: current, Previous: current.Status}, nil
	}

	updated, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to reload match %s: %w", matchID, err)
	}
	s.metrics.IncMatchTransition(string(to))
	log.Info("Match transitioned", "matchID", matchID, "from", previous, "to", to, "actor", actor)

	s.dispatcher.NotifyMatch(ctx, updated, notifier.TransitionDelivery(updated, s.catalog.Label(updated.GameCode), reason))
	event := pubsub.MatchEvent{
		MatchID:  updated.ID,
		SlotDate: dates.Key(updated.SlotDate),
		Player1:  updated.Player1,
		Player2:  updated.Player2,
		GameCode: updated.GameCode,
		Status:   string(updated.Status),
		Previous: string(previous),
		Actor:    actor,
		Reason:   reason,
	}
	if err := s.pubsub.SendMessage(pubsub.EventMatchStatusChanged, event); err != nil {
		log.Warn("Failed to publish match status event", "error", err, "matchID", matchID)
	}
	return Result{Match: updated, Changed: true, Previous: previous}, nil
}

func (s *Service) isAdmin(ctx context.Context, actor string) bool {
	ok, err := s.admin.IsAdministrator(ctx, actor)
	if err != nil {
		log.Error("Failed to check administrative capability", "error", err, "actor", actor)
		return false
	}
	return ok
}
