package matches

import "context"

// MatchStore persists matches.
type MatchStore interface {
	CreateIfNoConflict(ctx context.Context, m *Match) error
	Get(ctx context.Context, id string) (*Match, error)
	ListBySlot(ctx context.Context, slotID string) ([]Match, error)
	List(ctx context.Context, filter Filter) ([]Match, error)
	UpdateStatus(ctx context.Context, id string, from []Status, to Status, actor, reason string) (bool, error)
}
