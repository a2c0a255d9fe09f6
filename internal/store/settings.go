package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Persisted planner settings. The calendar handle is volatile external
// identity and is never trusted without re-verifying the path entry.
const (
	// SettingCalendarID holds the external store's handle for the
	// planner calendar, as a decimal string.
	SettingCalendarID = "planner.calendar_id"

	// SettingCalendarPath holds the calendar fingerprint
	// (account-name/account-type/calendar-name).
	SettingCalendarPath = "planner.calendar_path"

	// SettingLastExecution holds the Unix timestamp of the last
	// completed reconciliation pass.
	SettingLastExecution = "planner.last_execution"
)

// GetSetting returns the value for key and whether it is set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts a settings entry and, after the write has been
// committed, notifies observers subscribed to the key. Writing the value
// that is already stored still notifies: the observer decides whether
// old == new is a no-op (the migration engine does).
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	old, _, err := s.GetSetting(ctx, key)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	s.notify(ctx, key, old, value)
	return nil
}

// RemoveSetting deletes a settings entry and notifies observers with an
// empty new value. Removing an absent key is a no-op and does not notify.
func (s *Store) RemoveSetting(ctx context.Context, key string) error {
	old, ok, err := s.GetSetting(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove setting %s: %w", key, err)
	}
	s.notify(ctx, key, old, "")
	return nil
}

// Subscribe registers an observer for writes to key. Observers run
// synchronously on the writer's goroutine, after the write has been
// committed, in registration order. The registry is single-writer, so
// observers never run concurrently with each other.
func (s *Store) Subscribe(key string, fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers[key] = append(s.observers[key], fn)
}

// notify calls observers outside the lock: an observer may itself write
// settings (the migration engine reverts the handle on hard failure).
func (s *Store) notify(ctx context.Context, key, old, new string) {
	s.mu.Lock()
	obs := make([]Observer, len(s.observers[key]))
	copy(obs, s.observers[key])
	s.mu.Unlock()

	for _, fn := range obs {
		fn(ctx, old, new)
	}
}
