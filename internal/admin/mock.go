package admin

import (
	"context"
	"sync"
)

// Mock is a Checker with a fixed set of administrators.
type Mock struct {
	mu                  sync.Mutex
	Admins              map[string]bool
	IsAdministratorFunc func(ctx context.Context, userID string) (bool, error)
	Calls               []string
}

var _ Checker = (*Mock)(nil)

// NewMock creates a mock granting capability to the given users.
func NewMock(admins ...string) *Mock {
	m := &Mock{Admins: make(map[string]bool)}
	for _, a := range admins {
		m.Admins[a] = true
	}
	return m
}

func (m *Mock) IsAdministrator(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, userID)
	if m.IsAdministratorFunc != nil {
		return m.IsAdministratorFunc(ctx, userID)
	}
	return m.Admins[userID], nil
}
