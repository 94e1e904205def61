package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/munitorum/internal/dates"
)

// New creates a MatchStore. Slot dates are read back as midnight in loc.
func New(db *sql.DB, loc *time.Location) MatchStore {
	return &store{db: db, loc: loc}
}

var matchColumns = []string{
	"m.id", "m.event_id", "e.date", "m.player1_id", "m.player2_id", "m.game_code", "m.status",
	"m.thread_id", "m.status_reason", "m.decided_by", "m.created_at", "m.updated_at",
}

func selectMatches() squirrel.SelectBuilder {
	return squirrel.Select(matchColumns...).
		From("matches m").
		Join("events e ON e.id = m.event_id")
}

// CreateIfNoConflict inserts m as PENDING unless either player already holds a
// match of any status on the same slot. The check and the insert share one
// transaction, and the (slot, player) primary key of match_participants
// rejects whatever a concurrent writer slipped in between.
func (s *store) CreateIfNoConflict(ctx context.Context, m *Match) error {
	if m.Player1 == m.Player2 {
		return ErrSamePlayer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	players := []string{m.Player1, m.Player2}
	query, args, err := squirrel.Select("COUNT(*)").
		From("matches").
		Where(squirrel.Eq{"event_id": m.SlotID}).
		Where(squirrel.Or{
			squirrel.Eq{"player1_id": players},
			squirrel.Eq{"player2_id": players},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build duplicate check: %w", err)
	}
	var existing int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check duplicates: %w", err)
	}
	if existing > 0 {
		return ErrDuplicateParticipant
	}

	now := time.Now().UTC()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Status = StatusPending
	m.CreatedAt, m.UpdatedAt = now, now

	query, args, err = squirrel.Insert("matches").
		Columns("id", "event_id", "player1_id", "player2_id", "game_code", "status", "thread_id", "created_at", "updated_at").
		Values(m.ID, m.SlotID, m.Player1, m.Player2, m.GameCode, m.Status, m.ThreadID, now.Unix(), now.Unix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	for _, p := range players {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO match_participants (event_id, player_id, match_id) VALUES (?, ?, ?)",
			m.SlotID, p, m.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateParticipant
			}
			return fmt.Errorf("failed to reserve participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("Match created", "matchID", m.ID, "slotID", m.SlotID, "player1", m.Player1, "player2", m.Player2)
	return nil
}

func (s *store) Get(ctx context.Context, id string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args, err := selectMatches().Where(squirrel.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	m, err := s.scanMatch(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *store) ListBySlot(ctx context.Context, slotID string) ([]Match, error) {
	return s.List(ctx, Filter{SlotID: slotID})
}

// List returns the matches selected by filter, oldest first.
func (s *store) List(ctx context.Context, filter Filter) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := selectMatches()
	if filter.SlotID != "" {
		b = b.Where(squirrel.Eq{"m.event_id": filter.SlotID})
	}
	if filter.PlayerID != "" {
		b = b.Where(squirrel.Or{
			squirrel.Eq{"m.player1_id": filter.PlayerID},
			squirrel.Eq{"m.player2_id": filter.PlayerID},
		})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		b = b.Where(squirrel.Eq{"m.status": statuses})
	}
	if !filter.From.IsZero() {
		b = b.Where(squirrel.GtOrEq{"e.date": dates.Key(filter.From.In(s.loc))})
	}
	if !filter.To.IsZero() {
		b = b.Where(squirrel.LtOrEq{"e.date": dates.Key(filter.To.In(s.loc))})
	}

	query, args, err := b.OrderBy("e.date", "m.created_at", "m.id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build match query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := s.scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// UpdateStatus moves the match to status to only if its current status is one
// of from. It reports false when the match was in another state, which makes a
// concurrent transition lose cleanly instead of overwriting.
func (s *store) UpdateStatus(ctx context.Context, id string, from []Status, to Status, actor, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromValues := make([]string, len(from))
	for i, st := range from {
		fromValues[i] = string(st)
	}
	query, args, err := squirrel.Update("matches").
		Set("status", string(to)).
		Set("decided_by", actor).
		Set("status_reason", reason).
		Set("updated_at", time.Now().Unix()).
		Where(squirrel.Eq{"id": id, "status": fromValues}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build status update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update match %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *store) scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var (
		m                Match
		dateKey          string
		created, updated int64
	)
	err := scanner.Scan(&m.ID, &m.SlotID, &dateKey, &m.Player1, &m.Player2, &m.GameCode, &m.Status,
		&m.ThreadID, &m.StatusReason, &m.DecidedBy, &created, &updated)
	if err != nil {
		return nil, err
	}
	if m.SlotDate, err = dates.FromKey(dateKey, s.loc); err != nil {
		return nil, err
	}
	m.CreatedAt = time.Unix(created, 0).UTC()
	m.UpdatedAt = time.Unix(updated, 0).UTC()
	return &m, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
