package notifier

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/ledger"
	"github.com/mauv0809/munitorum/internal/matches"
	"github.com/mauv0809/munitorum/internal/metrics"
)

// Delivery is what to tell about one match event.
type Delivery struct {
	Event      string
	DMText     string
	ThreadText string
}

// Dispatcher fans a match event out to both players and, optionally, to the
// match's thread, and records every attempt in the ledger.
type Dispatcher struct {
	messenger       Messenger
	ledger          ledger.Store
	metrics         metrics.Metrics
	mentionInThread bool
}

// NewDispatcher creates a dispatcher. When mentionInThread is set, events are
// also posted to the thread the match was booked from.
func NewDispatcher(messenger Messenger, ledger ledger.Store, metrics metrics.Metrics, mentionInThread bool) *Dispatcher {
	return &Dispatcher{
		messenger:       messenger,
		ledger:          ledger,
		metrics:         metrics,
		mentionInThread: mentionInThread,
	}
}

// NotifyMatch delivers d and returns the recorded outcomes. Failures are
// isolated per recipient and never returned as errors.
func (d *Dispatcher) NotifyMatch(ctx context.Context, m *matches.Match, delivery Delivery) []ledger.Record {
	participants := m.Participants()
	records := make([]ledger.Record, len(participants))

	var wg sync.WaitGroup
	for i, userID := range participants {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			err := d.messenger.SendDirectMessage(ctx, userID, delivery.DMText)
			records[i] = d.outcome(m.ID, delivery.Event, ledger.ChannelDM, userID, err)
		}(i, userID)
	}
	wg.Wait()

	if d.mentionInThread && m.ThreadID != "" && delivery.ThreadText != "" {
		_, err := d.messenger.SendToChannel(ctx, m.ThreadID, delivery.ThreadText)
		records = append(records, d.outcome(m.ID, delivery.Event, ledger.ChannelThread, m.ThreadID, err))
	}

	if err := d.ledger.Append(ctx, records...); err != nil {
		log.Error("Failed to record notification outcomes", "error", err, "matchID", m.ID, "event", delivery.Event)
	}
	return records
}

func (d *Dispatcher) outcome(matchID, event string, channel ledger.Channel, recipient string, err error) ledger.Record {
	r := ledger.Record{MatchID: matchID, Event: event, Channel: channel, Recipient: recipient, Success: err == nil}
	if err != nil {
		r.Error = err.Error()
		d.metrics.IncNotificationFailed(string(channel))
		log.Warn("Notification delivery failed", "error", err, "matchID", matchID, "channel", channel, "recipient", recipient)
		return r
	}
	d.metrics.IncNotificationSent(string(channel))
	log.Debug("Notification delivered", "matchID", matchID, "channel", channel, "recipient", recipient)
	return r
}
