package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/dates"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		if err := s.DB.PingContext(r.Context()); err != nil {
			log.Error("Health check failed", "error", err)
			http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// ListSlotsHandler returns the slots of the current month as JSON.
func (s *Server) ListSlotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := s.Scheduler.ListMonth(r.Context())
		if err != nil {
			log.Error("Failed to list slots", "error", err)
			http.Error(w, "Failed to list slots", http.StatusInternalServerError)
			return
		}
		respondWithJSON(w, http.StatusOK, slots)
	}
}

// GenerateMonthHandler runs the month generation with the stored weekday policy.
// Cloud Scheduler calls it as an alternative to the in-process cron.
func (s *Server) GenerateMonthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		log.Info("Starting month generation...")
		result, err := s.Scheduler.GenerateMonth(r.Context(), nil)
		if err != nil {
			log.Error("Month generation failed", "error", err)
			http.Error(w, "Month generation failed", http.StatusInternalServerError)
			return
		}
		respondWithJSON(w, http.StatusOK, generationResponse{
			Month:          dates.MonthKey(result.Month),
			Created:        dateKeys(result.Created),
			AlreadyPresent: dateKeys(result.AlreadyPresent),
			ClosedSkipped:  dateKeys(result.ClosedSkipped),
		})
	}
}

func respondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response to JSON", "error", err)
	}
}

func dateKeys(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = dates.Key(d)
	}
	return out
}
