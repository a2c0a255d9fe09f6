package planner

import (
	"context"
	"fmt"
	"log/slog"

	"planmirror/internal/store"
)

// Provision finds or creates the dedicated planner calendar and returns
// its handle.
//
// Idempotent: the search-before-create on the fixed account triple
// guarantees no duplicate calendar once one exists. Creation failures
// are reported, never silently retried.
//
// With persist set, the handle is written to the registry settings,
// which runs the migration engine through the change observer.
func (p *Planner) Provision(ctx context.Context, persist bool) (int64, error) {
	existing, err := p.cal.FindCalendar(ctx, p.attrs.AccountName, p.attrs.AccountType, p.attrs.Name)
	if err != nil {
		return 0, newProvisionFailed("searching for planner calendar failed", err)
	}

	var handle int64
	if existing != nil {
		handle = existing.ID
		slog.Info("found a preexisting planner calendar", "calendar_id", handle)
	} else {
		handle, err = p.cal.CreateCalendar(ctx, p.attrs)
		if err != nil {
			return 0, newProvisionFailed("inserting planner calendar failed", err)
		}
		if handle == 0 {
			return 0, newProvisionFailed(
				fmt.Sprintf("inserting planner calendar returned handle %d", handle), nil)
		}
		slog.Info("successfully set up new planner calendar", "calendar_id", handle)
	}

	if persist {
		// The settings observer now triggers the migration engine.
		if err := p.reg.SetSetting(ctx, store.SettingCalendarID, formatHandle(handle)); err != nil {
			return 0, fmt.Errorf("persisting planner calendar handle: %w", err)
		}
	}
	return handle, nil
}
