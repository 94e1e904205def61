package club

import "context"

// ClubStore holds the lightweight profiles of the club's players.
type ClubStore interface {
	UpsertPlayer(ctx context.Context, playerID, displayName string) (*Player, error)
	GetPlayer(ctx context.Context, playerID string) (*Player, error)
	IsKnownPlayer(ctx context.Context, playerID string) bool
	GetAllPlayers(ctx context.Context) ([]Player, error)
}
