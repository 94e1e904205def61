package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/pubsub"
)

// SlotsGeneratedHandler is the push endpoint of the slots-generated
// subscription. It announces the month in the club channel.
func (s *Server) SlotsGeneratedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received slots generated message", "body", string(bodyBytes))

		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"`
			} `json:"message"`
		}
		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		var event pubsub.SlotsEvent
		if err := s.pubsub.ProcessMessage(rawData, &event); err != nil {
			log.Error("Failed to decode slots event", "error", err)
			http.Error(w, "Invalid message", http.StatusBadRequest)
			return
		}
		if len(event.Created) == 0 {
			log.Info("No new slot, nothing to announce", "scope", event.Scope)
			w.Write([]byte("OK"))
			return
		}

		if _, err := s.Messenger.SendToChannel(r.Context(), s.Cfg.Slack.ChannelID, s.announcement(event)); err != nil {
			log.Error("Failed to announce slots", "error", err)
			http.Error(w, "Failed to announce slots", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

func (s *Server) announcement(event pubsub.SlotsEvent) string {
	month := event.Scope
	if t, err := dates.ParseMonthKey(event.Scope, s.Cfg.Location()); err == nil {
		month = dates.FormatMonth(t)
	}
	text := fmt.Sprintf("📅 Les soirées de %s sont ouvertes : %d nouvelle(s) date(s).", month, len(event.Created))
	if n := len(event.ClosedSkipped); n > 0 {
		text += fmt.Sprintf(" %d date(s) fermée(s) pour vacances scolaires.", n)
	}
	return text
}
