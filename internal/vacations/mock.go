package vacations

import (
	"context"
	"sync"
	"time"
)

// MockClient is a mock implementation of CalendarClient for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	FetchRecordsFunc func(ctx context.Context, region string) ([]Record, error)

	FetchRecordsCalls []string
}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) FetchRecords(ctx context.Context, region string) ([]Record, error) {
	m.mu.Lock()
	m.FetchRecordsCalls = append(m.FetchRecordsCalls, region)
	fn := m.FetchRecordsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, region)
	}
	return nil, nil
}

// Calls returns the number of fetches so far.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FetchRecordsCalls)
}

// MockResolver is a mock implementation of ClosureResolver for testing.
type MockResolver struct {
	mu sync.Mutex

	ResolveClosureFunc func(ctx context.Context, date time.Time, region string, loc *time.Location) ClosureInfo

	ResolveClosureCalls []time.Time
}

// NewMockResolver creates a resolver that reports every date open.
func NewMockResolver() *MockResolver {
	return &MockResolver{}
}

func (m *MockResolver) ResolveClosure(ctx context.Context, date time.Time, region string, loc *time.Location) ClosureInfo {
	m.mu.Lock()
	m.ResolveClosureCalls = append(m.ResolveClosureCalls, date)
	fn := m.ResolveClosureFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, date, region, loc)
	}
	return ClosureInfo{}
}
