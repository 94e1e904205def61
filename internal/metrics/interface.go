package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	AddSlotsGenerated(created, present, skipped int)
	IncMatchesBooked()
	IncBookingRefused(reason string)
	IncMatchTransition(status string)
	IncNotificationSent(channel string)
	IncNotificationFailed(channel string)
	IncCalendarFetches()
	IncCalendarFailures()
	ObserveCalendarFetchDuration(duration float64)
	SetStartupTime(duration float64)
}
