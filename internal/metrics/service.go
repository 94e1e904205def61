package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		SlotsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "munitorum_slots_generated_total",
			Help: "Slot dates handled by month generation, by outcome.",
		}, []string{"outcome"}),
		MatchesBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "munitorum_matches_booked_total",
			Help: "The total number of matches booked.",
		}),
		BookingsRefused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "munitorum_bookings_refused_total",
			Help: "Booking requests refused, by reason.",
		}, []string{"reason"}),
		MatchTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "munitorum_match_transitions_total",
			Help: "Match status transitions, by target status.",
		}, []string{"status"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "munitorum_notifications_sent_total",
			Help: "Notifications delivered, by channel.",
		}, []string{"channel"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "munitorum_notifications_failed_total",
			Help: "Notifications that failed to deliver, by channel.",
		}, []string{"channel"}),
		CalendarFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "munitorum_calendar_fetches_total",
			Help: "The total number of remote vacation calendar fetches.",
		}),
		CalendarFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "munitorum_calendar_failures_total",
			Help: "Closure lookups answered without a calendar.",
		}),
		CalendarFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "munitorum_calendar_fetch_duration_seconds",
			Help:    "The duration of a full remote calendar fetch.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "munitorum_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.SlotsGenerated,
		s.MatchesBooked,
		s.BookingsRefused,
		s.MatchTransitions,
		s.NotificationsSent,
		s.NotificationsFailed,
		s.CalendarFetches,
		s.CalendarFailures,
		s.CalendarFetchDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) AddSlotsGenerated(created, present, skipped int) {
	s.SlotsGenerated.WithLabelValues("created").Add(float64(created))
	s.SlotsGenerated.WithLabelValues("present").Add(float64(present))
	s.SlotsGenerated.WithLabelValues("closed").Add(float64(skipped))
}

func (s *Service) IncMatchesBooked() {
	s.MatchesBooked.Inc()
}

func (s *Service) IncBookingRefused(reason string) {
	s.BookingsRefused.WithLabelValues(reason).Inc()
}

func (s *Service) IncMatchTransition(status string) {
	s.MatchTransitions.WithLabelValues(status).Inc()
}

func (s *Service) IncNotificationSent(channel string) {
	s.NotificationsSent.WithLabelValues(channel).Inc()
}

func (s *Service) IncNotificationFailed(channel string) {
	s.NotificationsFailed.WithLabelValues(channel).Inc()
}

func (s *Service) IncCalendarFetches() {
	s.CalendarFetches.Inc()
}

func (s *Service) IncCalendarFailures() {
	s.CalendarFailures.Inc()
}

func (s *Service) ObserveCalendarFetchDuration(duration float64) {
	s.CalendarFetchDuration.Observe(duration)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
