package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/matches"
)

// Match events, as stored in the ledger.
const (
	EventBooked    = "booked"
	EventApproved  = "approved"
	EventRejected  = "rejected"
	EventCancelled = "cancelled"
)

// Mention renders a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// BookedDelivery is sent when a match is created.
func BookedDelivery(m *matches.Match, gameLabel string) Delivery {
	return Delivery{
		Event:      EventBooked,
		DMText:     fmt.Sprintf("✅ Votre partie %s est enregistrée et en attente de validation.", gameLabel),
		ThreadText: fmt.Sprintf("📝 Partie enregistrée : %s vs %s (%s), en attente de validation.", Mention(m.Player1), Mention(m.Player2), gameLabel),
	}
}

// TransitionDelivery is sent after a status change.
func TransitionDelivery(m *matches.Match, gameLabel, reason string) Delivery {
	var (
		icon  string
		event string
	)
	switch m.Status {
	case matches.StatusApproved:
		icon, event = "✅", EventApproved
	case matches.StatusRejected:
		icon, event = "⛔", EventRejected
	default:
		icon, event = "🚫", EventCancelled
	}

	day := dates.Format(m.SlotDate)
	dm := fmt.Sprintf("%s Votre partie %s du %s a été %s.", icon, gameLabel, day, m.Status.Label())
	thread := fmt.Sprintf("%s Partie %s vs %s (%s) %s.", icon, Mention(m.Player1), Mention(m.Player2), gameLabel, m.Status.Label())
	if reason = strings.TrimSpace(reason); reason != "" {
		dm += " Motif : " + reason
		thread += " Motif : " + reason
	}
	return Delivery{Event: event, DMText: dm, ThreadText: thread}
}

// ThreadTitle names the thread of one game on one slot, e.g. "Soirée 40k - vendredi 9 février".
func ThreadTitle(gameLabel string, date time.Time) string {
	return fmt.Sprintf("Soirée %s - %s", gameLabel, dates.FormatLong(date))
}
