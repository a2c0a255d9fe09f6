package store

import (
	"context"
	"database/sql"
	"fmt"

	"planmirror/internal/projection"
)

// CacheEvent writes a copy of an owned event's projected fields into the
// event cache. Called synchronously by whoever deletes an owned event,
// BEFORE the deletion: the cache row is the last copy of ground truth
// once the live event is gone.
//
// Entries are write-once; nothing ever updates them.
func (s *Store) CacheEvent(ctx context.Context, f projection.EventFields, now int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_cache
		(start_unix, end_unix, duration, rrule, title, all_day, timezone,
		 description, custom_app_package, custom_app_uri, cached_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
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
		now,
	)
	if err != nil {
		return fmt.Errorf("cache event: %w", err)
	}
	return nil
}

// FindCachedEventByUUID returns the most recently cached event whose
// description carries the given uuid as a delimited token, or nil when
// the cache holds none.
//
// SQLite LIKE is only a pre-filter here; candidates are re-checked with
// an exact token match so that a uuid embedded in a longer hex run can
// not produce a false positive.
func (s *Store) FindCachedEventByUUID(ctx context.Context, id string) (*projection.EventFields, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT start_unix, end_unix, duration, rrule, title, all_day, timezone,
		       description, custom_app_package, custom_app_uri
		FROM event_cache
		WHERE description LIKE '%' || ? || '%'
		ORDER BY id DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query event cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f projection.EventFields
		var end sql.NullInt64
		var duration sql.NullString
		err := rows.Scan(
			&f.Start,
			&end,
			&duration,
			&f.RRule,
			&f.Title,
			&f.AllDay,
			&f.Timezone,
			&f.Description,
			&f.CustomAppPackage,
			&f.CustomAppURI,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cached event: %w", err)
		}
		if !projection.ContainsUUID(f.Description, id) {
			continue
		}
		if end.Valid {
			f.End = &end.Int64
		}
		if duration.Valid {
			f.Duration = &duration.String
		}
		return &f, nil
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event cache: %w", err)
	}
	return nil, nil
}
