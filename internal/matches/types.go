package matches

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// Status is the approval state of a match.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no transition leaves the status.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Label is the French wording of the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "en attente"
	case StatusApproved:
		return "validée"
	case StatusRejected:
		return "refusée"
	case StatusCancelled:
		return "annulée"
	default:
		return string(s)
	}
}

var (
	// ErrNotFound is returned when no match has the requested id.
	ErrNotFound = errors.New("matches: match not found")
	// ErrDuplicateParticipant is returned when a player already has a match on the slot.
	ErrDuplicateParticipant = errors.New("matches: a player already has a match on this slot")
	// ErrSamePlayer is returned when both sides of a match are the same player.
	ErrSamePlayer = errors.New("matches: players must differ")
)

// Match is a two player reservation on a slot.
type Match struct {
	ID           string    `json:"id"`
	SlotID       string    `json:"slot_id"`
	SlotDate     time.Time `json:"slot_date"`
	Player1      string    `json:"player1"`
	Player2      string    `json:"player2"`
	GameCode     string    `json:"game_code"`
	Status       Status    `json:"status"`
	ThreadID     string    `json:"thread_id,omitempty"`
	StatusReason string    `json:"status_reason,omitempty"`
	DecidedBy    string    `json:"decided_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Participants returns both players.
func (m Match) Participants() []string {
	return []string{m.Player1, m.Player2}
}

// HasParticipant reports whether playerID plays in the match.
func (m Match) HasParticipant(playerID string) bool {
	return m.Player1 == playerID || m.Player2 == playerID
}

// Filter narrows List. Zero fields are ignored.
type Filter struct {
	SlotID   string
	PlayerID string
	Statuses []Status
	From     time.Time
	To       time.Time
}

// store handles all database operations for matches.
type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	loc *time.Location
}
