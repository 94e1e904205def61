package slotdays

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// SettingKey is the settings row holding the policy.
const SettingKey = "slot_days"

// ErrEmptyPolicy is returned when trying to store a policy without any weekday.
var ErrEmptyPolicy = errors.New("slotdays: policy needs at least one weekday")

// Store persists the weekday policy.
type Store interface {
	Get(ctx context.Context) (Weekdays, error)
	Set(ctx context.Context, days Weekdays) error
}

type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a settings backed policy store.
func New(db *sql.DB) Store {
	return &store{db: db}
}

// Get returns the stored policy, or Default when it is unset or unreadable.
func (s *store) Get(ctx context.Context) (Weekdays, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", SettingKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return Default, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot days: %w", err)
	}

	days := ParseInput(value)
	if len(days) == 0 {
		log.Warn("Stored slot days are unreadable, using default", "value", value)
		return Default, nil
	}
	return days, nil
}

func (s *store) Set(ctx context.Context, days Weekdays) error {
	days = Normalize(days)
	if len(days) == 0 {
		return ErrEmptyPolicy
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, SettingKey, Encode(days), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store slot days: %w", err)
	}
	log.Info("Slot days updated", "days", Format(days))
	return nil
}
