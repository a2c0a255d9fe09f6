package planner

import (
	"context"
	"fmt"
	"log/slog"

	"planmirror/internal/calendar"
	"planmirror/internal/store"
)

// VerifyResult is the outcome of a calendar identity check.
type VerifyResult string

const (
	// VerifyVerified: the handle exists and its fingerprint matches the
	// stored one; the calendar may be trusted for this operation.
	VerifyVerified VerifyResult = "verified"

	// VerifyInvalid: the calendar is gone, or the handle now points at
	// a calendar with a different fingerprint. Never trust ambiguous
	// handle identity.
	VerifyInvalid VerifyResult = "invalid"

	// VerifyUnknown: the check itself failed structurally. The caller
	// must not assume the calendar is gone.
	VerifyUnknown VerifyResult = "unknown"
)

// Verify checks that handle still refers to the calendar whose
// fingerprint is persisted in the registry.
//
// As a side effect it repairs a known store quirk: when the fingerprint
// matches, the calendar is one this system created (our account name,
// local account type), and the store's sync-events flag has been
// silently reset, the flag is turned back on in place.
func (p *Planner) Verify(ctx context.Context, handle int64) (VerifyResult, error) {
	c, err := p.cal.CalendarByID(ctx, handle)
	if err != nil {
		return VerifyUnknown, newStoreFailure("looking up calendar", handle, err)
	}
	if c == nil {
		slog.Error("configured calendar has been deleted", "calendar_id", handle)
		return VerifyInvalid, nil
	}

	expected, _, err := p.reg.GetSetting(ctx, store.SettingCalendarPath)
	if err != nil {
		return VerifyUnknown, fmt.Errorf("reading stored calendar path: %w", err)
	}
	if c.Path() != expected {
		slog.Error("found calendar, but path did not match",
			"calendar_id", handle, "found", c.Path(), "expected", expected)
		return VerifyInvalid, nil
	}

	if !c.SyncEvents && c.AccountName == p.attrs.AccountName && c.AccountType == calendar.AccountTypeLocal {
		if err := p.cal.SetSyncEvents(ctx, handle, true); err != nil {
			// Best effort; the identity itself checked out.
			slog.Warn("could not repair sync_events on planner calendar",
				"calendar_id", handle, "error", err)
		} else {
			slog.Info("fixing sync_events for planning calendar", "calendar_id", handle)
		}
	}
	return VerifyVerified, nil
}

// CheckPlanner verifies the persisted calendar configuration. On an
// Invalid outcome the stored handle, fingerprint and last-execution
// timestamp are cleared; this is the only operation allowed to silently
// forget a handle.
//
// Returns the checked handle (0 only when none was configured) along
// with the verification result; on Invalid the returned handle is the
// one that was just forgotten.
func (p *Planner) CheckPlanner(ctx context.Context) (int64, VerifyResult, error) {
	handle, err := p.configuredHandle(ctx)
	if err != nil {
		return 0, VerifyUnknown, err
	}
	if handle == 0 {
		return 0, VerifyInvalid, nil
	}
	p.current = handle

	res, verr := p.Verify(ctx, handle)
	switch res {
	case VerifyInvalid:
		if err := p.RemovePlanner(ctx); err != nil {
			return handle, VerifyInvalid, err
		}
		return handle, VerifyInvalid, nil
	case VerifyUnknown:
		// Inconclusive: keep the configuration untouched.
		return handle, VerifyUnknown, verr
	}
	return handle, VerifyVerified, nil
}

// RemovePlanner forgets the configured calendar: handle, fingerprint
// path and last-execution timestamp.
func (p *Planner) RemovePlanner(ctx context.Context) error {
	// Removing the handle fires the change observer, which clears the
	// fingerprint too; the explicit removes below keep RemovePlanner
	// correct when no observer is bound.
	if err := p.reg.RemoveSetting(ctx, store.SettingCalendarID); err != nil {
		return fmt.Errorf("remove planner: %w", err)
	}
	if err := p.reg.RemoveSetting(ctx, store.SettingCalendarPath); err != nil {
		return fmt.Errorf("remove planner: %w", err)
	}
	if err := p.reg.RemoveSetting(ctx, store.SettingLastExecution); err != nil {
		return fmt.Errorf("remove planner: %w", err)
	}
	return nil
}
