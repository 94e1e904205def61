package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/munitorum/internal/dates"
)

// New creates an EventStore. Stored dates are read back as midnight in loc.
func New(db *sql.DB, loc *time.Location) EventStore {
	return &store{db: db, loc: loc}
}

// key is the storage key of the calendar day of t in the store's timezone.
func (s *store) key(t time.Time) string {
	return dates.Key(t.In(s.loc))
}

const slotColumns = "id, date, table_count, status, vacation_closure, created_at, updated_at"

func (s *store) GetByDate(ctx context.Context, date time.Time) (*Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM events WHERE date = ?", s.key(date))
	return s.scanSlot(row)
}

func (s *store) GetByID(ctx context.Context, id string) (*Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM events WHERE id = ?", id)
	return s.scanSlot(row)
}

// FindByThread returns the slot a chat thread belongs to, and the thread's game code.
func (s *store) FindByThread(ctx context.Context, threadID string) (*Slot, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var gameCode string
	row := s.db.QueryRowContext(ctx, `
		SELECT e.id, e.date, e.table_count, e.status, e.vacation_closure, e.created_at, e.updated_at, t.game_code
		FROM event_threads t JOIN events e ON e.id = t.event_id
		WHERE t.thread_id = ?`, threadID)
	slot, err := s.scanSlot(row, &gameCode)
	if err != nil {
		return nil, "", err
	}
	return slot, gameCode, nil
}

// Create inserts an OPEN slot without tables. It never touches an existing
// slot: when the date is taken it returns ErrAlreadyExists.
func (s *store) Create(ctx context.Context, date time.Time) (*Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	slot := &Slot{
		ID:        uuid.NewString(),
		Date:      dates.StartOfDay(date, s.loc),
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, date, table_count, status, vacation_closure, created_at, updated_at)
		VALUES (?, ?, 0, ?, 0, ?, ?)
		ON CONFLICT(date) DO NOTHING`,
		slot.ID, s.key(slot.Date), slot.Status, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create slot %s: %w", s.key(date), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%s: %w", s.key(date), ErrAlreadyExists)
	}
	log.Debug("Created slot", "date", s.key(slot.Date), "id", slot.ID)
	return slot, nil
}

// Upsert is the administrative set: it creates or updates the slot for date
// and derives its status from the table count and the closure flag.
func (s *store) Upsert(ctx context.Context, date time.Time, tableCount int, vacationClosure bool) (*Slot, error) {
	if tableCount < 0 {
		return nil, ErrNegativeTables
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	status := StatusFor(tableCount, vacationClosure)
	key := s.key(date)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, date, table_count, status, vacation_closure, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			table_count = excluded.table_count,
			status = excluded.status,
			vacation_closure = excluded.vacation_closure,
			updated_at = excluded.updated_at`,
		uuid.NewString(), key, tableCount, status, vacationClosure, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert slot %s: %w", key, err)
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM events WHERE date = ?", key)
	return s.scanSlot(row)
}

// ListBetween returns the slots between from and to inclusive, by date.
func (s *store) ListBetween(ctx context.Context, from, to time.Time) ([]Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+slotColumns+" FROM events WHERE date BETWEEN ? AND ? ORDER BY date",
		s.key(from), s.key(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		slot, err := s.scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

// SaveThread records the thread of a (slot, game) pair. Saving a pair twice is a no-op.
func (s *store) SaveThread(ctx context.Context, thread Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_threads (event_id, game_code, thread_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id, game_code) DO NOTHING`,
		thread.SlotID, thread.GameCode, thread.ThreadID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save thread for slot %s: %w", thread.SlotID, err)
	}
	return nil
}

func (s *store) Threads(ctx context.Context, slotID string) ([]Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT event_id, game_code, thread_id FROM event_threads WHERE event_id = ? ORDER BY game_code", slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.SlotID, &t.GameCode, &t.ThreadID); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// CountDependents reports what DeleteCascade would remove for the same range.
func (s *store) CountDependents(ctx context.Context, from, to time.Time) (Dependents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countDependents(ctx, s.db, s.key(from), s.key(to))
}

// DeleteCascade removes the slots between from and to inclusive along with
// their matches, notifications and thread links, in one transaction. Nothing
// is removed and ErrPlanOutdated is returned when the counts no longer match
// expected. The returned thread ids are for the caller to archive.
func (s *store) DeleteCascade(ctx context.Context, from, to time.Time, expected Dependents) (Dependents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromKey, toKey := s.key(from), s.key(to)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Dependents{}, err
	}
	defer tx.Rollback()

	deps, err := countDependents(ctx, tx, fromKey, toKey)
	if err != nil {
		return Dependents{}, err
	}
	if deps.Slots == 0 {
		return deps, nil
	}
	if deps.Slots != expected.Slots || deps.Matches != expected.Matches || deps.Notifications != expected.Notifications {
		log.Warn("Deletion plan is outdated", "from", fromKey, "to", toKey,
			"expectedMatches", expected.Matches, "matches", deps.Matches,
			"expectedNotifications", expected.Notifications, "notifications", deps.Notifications)
		return deps, ErrPlanOutdated
	}

	scope := "SELECT id FROM events WHERE date BETWEEN ? AND ?"
	steps := []string{
		"DELETE FROM notifications WHERE match_id IN (SELECT id FROM matches WHERE event_id IN (" + scope + "))",
		"DELETE FROM match_participants WHERE event_id IN (" + scope + ")",
		"DELETE FROM matches WHERE event_id IN (" + scope + ")",
		"DELETE FROM event_threads WHERE event_id IN (" + scope + ")",
		"DELETE FROM events WHERE date BETWEEN ? AND ?",
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt, fromKey, toKey); err != nil {
			return Dependents{}, fmt.Errorf("failed to delete slots %s..%s: %w", fromKey, toKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Dependents{}, err
	}

	log.Info("Deleted slots", "from", fromKey, "to", toKey, "slots", deps.Slots, "matches", deps.Matches, "notifications", deps.Notifications)
	return deps, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func countDependents(ctx context.Context, q queryer, fromKey, toKey string) (Dependents, error) {
	var deps Dependents
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events WHERE date BETWEEN ?1 AND ?2),
			(SELECT COUNT(*) FROM matches m JOIN events e ON e.id = m.event_id WHERE e.date BETWEEN ?1 AND ?2),
			(SELECT COUNT(*) FROM notifications n JOIN matches m ON m.id = n.match_id JOIN events e ON e.id = m.event_id WHERE e.date BETWEEN ?1 AND ?2)`,
		fromKey, toKey).Scan(&deps.Slots, &deps.Matches, &deps.Notifications)
	if err != nil {
		return Dependents{}, fmt.Errorf("failed to count dependents: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT t.thread_id FROM event_threads t JOIN events e ON e.id = t.event_id
		WHERE e.date BETWEEN ? AND ? ORDER BY e.date, t.game_code`, fromKey, toKey)
	if err != nil {
		return Dependents{}, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Dependents{}, err
		}
		deps.ThreadIDs = append(deps.ThreadIDs, id)
	}
	return deps, rows.Err()
}

// scanSlot scans one slot row; extra destinations are appended after the slot columns.
func (s *store) scanSlot(scanner interface{ Scan(...any) error }, extra ...any) (*Slot, error) {
	var (
		slot             Slot
		key              string
		created, updated int64
		vacationClosure  bool
	)
	dest := append([]any{&slot.ID, &key, &slot.TableCount, &slot.Status, &vacationClosure, &created, &updated}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	date, err := dates.FromKey(key, s.loc)
	if err != nil {
		return nil, err
	}
	slot.Date = date
	slot.VacationClosure = vacationClosure
	slot.CreatedAt = time.Unix(created, 0).UTC()
	slot.UpdatedAt = time.Unix(updated, 0).UTC()
	return &slot, nil
}
