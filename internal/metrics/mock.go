package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	slotsCreated        int
	slotsPresent        int
	slotsSkipped        int
	matchesBooked       int
	bookingsRefused     map[string]int
	transitions         map[string]int
	notificationsSent   map[string]int
	notificationsFailed map[string]int
	calendarFetches     int
	calendarFailures    int
	fetchDurations      []float64
	startupTime         float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		bookingsRefused:     make(map[string]int),
		transitions:         make(map[string]int),
		notificationsSent:   make(map[string]int),
		notificationsFailed: make(map[string]int),
	}
}

func (m *Mock) AddSlotsGenerated(created, present, skipped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slotsCreated += created
	m.slotsPresent += present
	m.slotsSkipped += skipped
}

func (m *Mock) IncMatchesBooked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesBooked++
}

func (m *Mock) IncBookingRefused(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookingsRefused[reason]++
}

func (m *Mock) IncMatchTransition(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[status]++
}

func (m *Mock) IncNotificationSent(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsSent[channel]++
}

func (m *Mock) IncNotificationFailed(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsFailed[channel]++
}

func (m *Mock) IncCalendarFetches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendarFetches++
}

func (m *Mock) IncCalendarFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendarFailures++
}

func (m *Mock) ObserveCalendarFetchDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchDurations = append(m.fetchDurations, duration)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Getters for assertions in tests

func (m *Mock) SlotsGenerated() (created, present, skipped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slotsCreated, m.slotsPresent, m.slotsSkipped
}

func (m *Mock) MatchesBooked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesBooked
}

func (m *Mock) BookingsRefused(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookingsRefused[reason]
}

func (m *Mock) MatchTransitions(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions[status]
}

func (m *Mock) NotificationsSent(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationsSent[channel]
}

func (m *Mock) NotificationsFailed(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationsFailed[channel]
}

func (m *Mock) CalendarFetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calendarFetches
}

func (m *Mock) CalendarFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calendarFailures
}

func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
