package calendar

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"planmirror/internal/projection"
)

//go:embed schema.sql
var schemaSQL string

// LocalStore is a SQLite-backed calendar provider. It is the production
// store on platforms without a system calendar and the test double
// everywhere else: handles are rowids, so deletion plus recreation
// yields a fresh handle exactly like the hostile external stores the
// planner has to survive.
type LocalStore struct {
	db *sql.DB
}

var _ Store = (*LocalStore)(nil)

// OpenLocal creates or opens a local calendar database at the given
// path. Idempotent.
func OpenLocal(path string) (*LocalStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to calendar database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply calendar schema: %w", err)
	}

	return &LocalStore{db: db}, nil
}

// Close closes the database connection.
func (l *LocalStore) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *LocalStore) CalendarByID(ctx context.Context, id int64) (*Calendar, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, account_name, account_type, name, display_name, color,
		       access_level, owner, sync_events
		FROM calendars WHERE id = ?
	`, id)
	return scanCalendar(row)
}

func (l *LocalStore) CalendarByPath(ctx context.Context, path string) (*Calendar, error) {
	account, accountType, name := SplitPath(path)
	return l.FindCalendar(ctx, account, accountType, name)
}

func (l *LocalStore) FindCalendar(ctx context.Context, account, accountType, name string) (*Calendar, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, account_name, account_type, name, display_name, color,
		       access_level, owner, sync_events
		FROM calendars
		WHERE account_name = ? AND account_type = ? AND name = ?
		ORDER BY id ASC
		LIMIT 1
	`, account, accountType, name)
	return scanCalendar(row)
}

func (l *LocalStore) CreateCalendar(ctx context.Context, attrs Attrs) (int64, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO calendars
		(account_name, account_type, name, display_name, color, access_level, owner, sync_events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		attrs.AccountName,
		attrs.AccountType,
		attrs.Name,
		attrs.DisplayName,
		attrs.Color,
		attrs.AccessLevel,
		attrs.Owner,
		attrs.SyncEvents,
	)
	if err != nil {
		return 0, fmt.Errorf("create calendar: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create calendar: %w", err)
	}
	return id, nil
}

func (l *LocalStore) SetSyncEvents(ctx context.Context, id int64, on bool) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE calendars SET sync_events = ? WHERE id = ?`, on, id)
	if err != nil {
		return fmt.Errorf("set sync events on calendar %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set sync events on calendar %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("set sync events: no calendar with id %d", id)
	}
	return nil
}

// DeleteCalendar removes a calendar and, via the foreign key cascade,
// all its events. Not part of the Store interface: the planner never
// deletes calendars, only users and the surrounding system do.
func (l *LocalStore) DeleteCalendar(ctx context.Context, id int64) (bool, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM calendars WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete calendar %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete calendar %d: %w", id, err)
	}
	return n > 0, nil
}

func (l *LocalStore) EventByID(ctx context.Context, calendarID, eventID int64) (*projection.EventFields, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT calendar_id, start_unix, end_unix, duration, rrule, title,
		       all_day, timezone, description, custom_app_package, custom_app_uri
		FROM events
		WHERE id = ? AND calendar_id = ?
	`, eventID, calendarID)
	f, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("event %d in calendar %d: %w", eventID, calendarID, err)
	}
	return f, nil
}

func (l *LocalStore) FindEventByUUID(ctx context.Context, calendarID int64, uuid string) (int64, *projection.EventFields, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, calendar_id, start_unix, end_unix, duration, rrule, title,
		       all_day, timezone, description, custom_app_package, custom_app_uri
		FROM events
		WHERE calendar_id = ? AND description LIKE '%' || ? || '%'
		ORDER BY id ASC
	`, calendarID, uuid)
	if err != nil {
		return 0, nil, fmt.Errorf("search events in calendar %d: %w", calendarID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var f projection.EventFields
		var end sql.NullInt64
		var duration sql.NullString
		err := rows.Scan(
			&id, &f.CalendarID, &f.Start, &end, &duration, &f.RRule, &f.Title,
			&f.AllDay, &f.Timezone, &f.Description, &f.CustomAppPackage, &f.CustomAppURI,
		)
		if err != nil {
			return 0, nil, fmt.Errorf("scan event: %w", err)
		}
		// LIKE is a pre-filter; require a delimited token match.
		if !projection.ContainsUUID(f.Description, uuid) {
			continue
		}
		if end.Valid {
			f.End = &end.Int64
		}
		if duration.Valid {
			f.Duration = &duration.String
		}
		return id, &f, nil
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterate events: %w", err)
	}
	return 0, nil, nil
}

func (l *LocalStore) InsertEvent(ctx context.Context, calendarID int64, f projection.EventFields) (int64, error) {
	// Stricter store versions reject events carrying both an end and a
	// duration; enforce the same here so the codec shim stays honest.
	if f.End != nil && f.Duration != nil {
		return 0, fmt.Errorf("insert event: both end and duration set")
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO events
		(calendar_id, start_unix, end_unix, duration, rrule, title, all_day,
		 timezone, description, custom_app_package, custom_app_uri)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		calendarID,
		f.Start,
		f.End,
		f.Duration,
		f.RRule,
		f.Title,
		f.AllDay,
		f.Timezone,
		f.Description,
		f.CustomAppPackage,
		f.CustomAppURI,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

func (l *LocalStore) DeleteEvent(ctx context.Context, eventID int64) (bool, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID)
	if err != nil {
		return false, fmt.Errorf("delete event %d: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete event %d: %w", eventID, err)
	}
	return n > 0, nil
}

// CountEvents returns the number of events in a calendar. Used by the
// CLI status output and by tests asserting migration completeness.
func (l *LocalStore) CountEvents(ctx context.Context, calendarID int64) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE calendar_id = ?`, calendarID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events in calendar %d: %w", calendarID, err)
	}
	return n, nil
}

func scanCalendar(row *sql.Row) (*Calendar, error) {
	var c Calendar
	err := row.Scan(
		&c.ID, &c.AccountName, &c.AccountType, &c.Name, &c.DisplayName,
		&c.Color, &c.AccessLevel, &c.Owner, &c.SyncEvents,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan calendar: %w", err)
	}
	return &c, nil
}

func scanEvent(row *sql.Row) (*projection.EventFields, error) {
	var f projection.EventFields
	var end sql.NullInt64
	var duration sql.NullString
	err := row.Scan(
		&f.CalendarID, &f.Start, &end, &duration, &f.RRule, &f.Title,
		&f.AllDay, &f.Timezone, &f.Description, &f.CustomAppPackage, &f.CustomAppURI,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if end.Valid {
		f.End = &end.Int64
	}
	if duration.Valid {
		f.Duration = &duration.String
	}
	return &f, nil
}
