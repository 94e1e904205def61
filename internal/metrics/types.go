package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	SlotsGenerated        *prometheus.CounterVec
	MatchesBooked         prometheus.Counter
	BookingsRefused       *prometheus.CounterVec
	MatchTransitions      *prometheus.CounterVec
	NotificationsSent     *prometheus.CounterVec
	NotificationsFailed   *prometheus.CounterVec
	CalendarFetches       prometheus.Counter
	CalendarFailures      prometheus.Counter
	CalendarFetchDuration prometheus.Histogram
	StartupTimeSeconds    prometheus.Gauge
}
