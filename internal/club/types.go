package club

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// ErrPlayerNotFound is returned when no profile exists for a player id.
var ErrPlayerNotFound = errors.New("club: player not found")

// store handles all database operations for the club.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Player is a chat user who booked at least one match.
type Player struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Name returns the display name, or the id when the name is unknown.
func (p Player) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}
