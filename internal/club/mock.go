package club

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of the ClubStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	UpsertPlayerFunc  func(ctx context.Context, playerID, displayName string) (*Player, error)
	GetPlayerFunc     func(ctx context.Context, playerID string) (*Player, error)
	IsKnownPlayerFunc func(ctx context.Context, playerID string) bool
	GetAllPlayersFunc func(ctx context.Context) ([]Player, error)

	// Call records
	UpsertPlayerCalls []Player
}

var _ ClubStore = (*MockStore)(nil)

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertPlayerCalls = nil
}

func (m *MockStore) UpsertPlayer(ctx context.Context, playerID, displayName string) (*Player, error) {
	m.mu.Lock()
	m.UpsertPlayerCalls = append(m.UpsertPlayerCalls, Player{ID: playerID, DisplayName: displayName})
	fn := m.UpsertPlayerFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, playerID, displayName)
	}
	return &Player{ID: playerID, DisplayName: displayName}, nil
}

func (m *MockStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(ctx, playerID)
	}
	return nil, ErrPlayerNotFound
}

func (m *MockStore) IsKnownPlayer(ctx context.Context, playerID string) bool {
	if m.IsKnownPlayerFunc != nil {
		return m.IsKnownPlayerFunc(ctx, playerID)
	}
	return false
}

func (m *MockStore) GetAllPlayers(ctx context.Context) ([]Player, error) {
	if m.GetAllPlayersFunc != nil {
		return m.GetAllPlayersFunc(ctx)
	}
	return nil, nil
}
