// Package ledger keeps the append-only record of notification deliveries.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
)

// Channel is where a notification was delivered.
type Channel string

const (
	ChannelDM     Channel = "DM"
	ChannelThread Channel = "THREAD"
)

// Record is the outcome of one delivery attempt.
type Record struct {
	ID        int64     `json:"id"`
	MatchID   string    `json:"match_id"`
	Event     string    `json:"event"`
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store appends and reads delivery records. Records are never updated; they
// disappear only with their slot.
type Store interface {
	Append(ctx context.Context, records ...Record) error
	ListByMatch(ctx context.Context, matchID string) ([]Record, error)
	CountByMatches(ctx context.Context, matchIDs []string) (int, error)
}

type store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a ledger store.
func New(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) Append(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	b := squirrel.Insert("notifications").
		Columns("match_id", "event", "channel", "recipient", "success", "error", "created_at")
	for _, r := range records {
		var errText any
		if !r.Success {
			errText = r.Error
		}
		b = b.Values(r.MatchID, r.Event, string(r.Channel), r.Recipient, r.Success, errText, now)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build ledger insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append %d ledger records: %w", len(records), err)
	}
	return nil
}

func (s *store) ListByMatch(ctx context.Context, matchID string) ([]Record, error) {
	query, args, err := squirrel.Select("id", "match_id", "event", "channel", "recipient", "success", "error", "created_at").
		From("notifications").
		Where(squirrel.Eq{"match_id": matchID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			errText sql.NullString
			created int64
		)
		if err := rows.Scan(&r.ID, &r.MatchID, &r.Event, &r.Channel, &r.Recipient, &r.Success, &errText, &created); err != nil {
			return nil, err
		}
		r.Error = errText.String
		r.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *store) CountByMatches(ctx context.Context, matchIDs []string) (int, error) {
	if len(matchIDs) == 0 {
		return 0, nil
	}
	query, args, err := squirrel.Select("COUNT(*)").
		From("notifications").
		Where(squirrel.Eq{"match_id": matchIDs}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger records: %w", err)
	}
	return n, nil
}
