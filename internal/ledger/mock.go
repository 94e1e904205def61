package ledger

import (
	"context"
	"sync"
)

// Mock is an in-memory Store for testing.
type Mock struct {
	mu         sync.Mutex
	AppendFunc func(ctx context.Context, records ...Record) error
	Records    []Record
}

var _ Store = (*Mock)(nil)

// NewMock creates a new mock ledger.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Append(ctx context.Context, records ...Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendFunc != nil {
		if err := m.AppendFunc(ctx, records...); err != nil {
			return err
		}
	}
	for _, r := range records {
		r.ID = int64(len(m.Records) + 1)
		m.Records = append(m.Records, r)
	}
	return nil
}

func (m *Mock) ListByMatch(ctx context.Context, matchID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.Records {
		if r.MatchID == matchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Mock) CountByMatches(ctx context.Context, matchIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(matchIDs))
	for _, id := range matchIDs {
		wanted[id] = true
	}
	count := 0
	for _, r := range m.Records {
		if wanted[r.MatchID] {
			count++
		}
	}
	return count, nil
}
