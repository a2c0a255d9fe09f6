package calendar

import (
	"context"
	"strings"

	"planmirror/internal/projection"
)

// AccountTypeLocal marks calendars that live only on this device and are
// owned by the application that created them. The identity verifier's
// sync-events self-heal only applies to calendars of this type.
const AccountTypeLocal = "LOCAL"

// Calendar is a calendar container record as reported by the store.
type Calendar struct {
	// ID is the store's volatile handle. NOT stable across calendar
	// deletion and recreation; never trust it without checking Path.
	ID int64

	AccountName string
	AccountType string
	Name        string
	DisplayName string
	Color       string
	AccessLevel string
	Owner       string

	// SyncEvents is the store's "materialize events" flag. Some store
	// implementations silently reset it, orphaning the events visually.
	SyncEvents bool
}

// Path returns the calendar's fingerprint: a stable path-like identity
// derived from the account triple. Two calendars with the same path are
// considered the same calendar even across deletion and recreation.
func (c *Calendar) Path() string {
	return c.AccountName + "/" + c.AccountType + "/" + c.Name
}

// SplitPath breaks a fingerprint path into its account-name,
// account-type and calendar-name parts.
func SplitPath(path string) (account, accountType, name string) {
	parts := strings.SplitN(path, "/", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// Attrs carries the attributes for calendar creation.
type Attrs struct {
	AccountName string
	AccountType string
	Name        string
	DisplayName string
	Color       string
	AccessLevel string
	Owner       string
	SyncEvents  bool
}

// AccessOwner is the access level requested for calendars this system
// provisions.
const AccessOwner = "owner"

// Store is the external calendar store interface consumed by the
// planner engines. See the package comment for the error model.
type Store interface {
	// CalendarByID looks a calendar up by its volatile handle.
	// Returns (nil, nil) when no such calendar exists.
	CalendarByID(ctx context.Context, id int64) (*Calendar, error)

	// CalendarByPath looks a calendar up by its fingerprint path.
	// Returns (nil, nil) when no calendar matches.
	CalendarByPath(ctx context.Context, path string) (*Calendar, error)

	// FindCalendar searches for a calendar by its account triple.
	// Returns (nil, nil) when none matches.
	FindCalendar(ctx context.Context, account, accountType, name string) (*Calendar, error)

	// CreateCalendar creates a calendar and returns its handle.
	CreateCalendar(ctx context.Context, attrs Attrs) (int64, error)

	// SetSyncEvents flips the store's sync-events flag on a calendar.
	SetSyncEvents(ctx context.Context, id int64, on bool) error

	// EventByID reads an event's projected fields, filtered to the
	// given containing calendar. Returns (nil, nil) when the event does
	// not exist or lives in a different calendar.
	EventByID(ctx context.Context, calendarID, eventID int64) (*projection.EventFields, error)

	// FindEventByUUID searches a calendar for an event whose
	// description carries the uuid as a delimited token. Returns
	// (0, nil, nil) when none matches.
	FindEventByUUID(ctx context.Context, calendarID int64, uuid string) (int64, *projection.EventFields, error)

	// InsertEvent creates an event under the given calendar and returns
	// its handle.
	InsertEvent(ctx context.Context, calendarID int64, f projection.EventFields) (int64, error)

	// DeleteEvent removes an event. Returns false when no such event
	// existed (logical absence, not an error).
	DeleteEvent(ctx context.Context, eventID int64) (bool, error)
}
