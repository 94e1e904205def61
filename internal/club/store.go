package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a new ClubStore.
func New(db *sql.DB) ClubStore {
	return &store{
		db: db,
	}
}

// UpsertPlayer creates the profile or refreshes it. An empty display name
// keeps the one already stored, so a failed name lookup never erases it.
func (s *store) UpsertPlayer(ctx context.Context, playerID, displayName string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, display_name, created_at, last_seen_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = CASE WHEN excluded.display_name = '' THEN players.display_name ELSE excluded.display_name END,
			last_seen_at = excluded.last_seen_at`,
		playerID, displayName, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert player %s: %w", playerID, err)
	}
	log.Debug("Upserted player", "playerID", playerID, "displayName", displayName)
	return s.getPlayer(ctx, playerID)
}

func (s *store) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlayer(ctx, playerID)
}

func (s *store) getPlayer(ctx context.Context, playerID string) (*Player, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, display_name, created_at, last_seen_at FROM players WHERE id = ?", playerID)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	return p, err
}

func (s *store) IsKnownPlayer(ctx context.Context, playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM players WHERE id = ?)", playerID).Scan(&exists)
	if err != nil {
		log.Error("Failed to check if player is known", "error", err, "playerID", playerID)
		return false
	}
	return exists
}

// GetAllPlayers returns every profile, by display name.
func (s *store) GetAllPlayers(ctx context.Context) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, display_name, created_at, last_seen_at FROM players ORDER BY display_name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func scanPlayer(scanner interface{ Scan(...any) error }) (*Player, error) {
	var (
		p                 Player
		created, lastSeen int64
	)
	if err := scanner.Scan(&p.ID, &p.DisplayName, &created, &lastSeen); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.LastSeenAt = time.Unix(lastSeen, 0).UTC()
	return &p, nil
}
