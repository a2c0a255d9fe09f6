package planner

import (
	"context"
	"fmt"
	"log/slog"

	"planmirror/internal/projection"
	"planmirror/internal/store"
)

// RestoreAll rebuilds stale plan-event mappings and returns the number
// of plans whose projection was confirmed or repaired.
//
// Three tiers per plan, cheapest first:
//  1. direct lookup of the mapped event in the configured calendar
//     (the common nothing-changed case);
//  2. fingerprint search in the live calendar (event was recreated,
//     calendar survived);
//  3. fingerprint search in the durable event cache, re-materializing
//     the event (the whole calendar was wiped).
//
// A plan whose uuid appears nowhere loses its mapping - the only case
// of permanent projection loss - but remains a valid plan.
func (p *Planner) RestoreAll(ctx context.Context) (int, error) {
	handle, err := p.configuredHandle(ctx)
	if err != nil {
		return 0, err
	}
	path, _, err := p.reg.GetSetting(ctx, store.SettingCalendarPath)
	if err != nil {
		return 0, err
	}
	if handle == 0 || path == "" {
		return 0, nil
	}
	slog.Debug("restoring plans", "calendar_id", handle, "path", path)

	// The handle may have silently drifted (calendar recreated under
	// the same fingerprint); re-resolve by path and repoint.
	c, err := p.cal.CalendarByPath(ctx, path)
	if err != nil {
		return 0, newStoreFailure("resolving calendar by fingerprint", handle, err)
	}
	if c == nil {
		slog.Warn("no calendar matches stored fingerprint", "path", path)
		return 0, nil
	}
	if c.ID != handle {
		slog.Info("calendar handle drifted, repointing", "old", handle, "new", c.ID)
		p.current = c.ID // not a calendar switch; suppress the migration observer
		if err := p.reg.SetSetting(ctx, store.SettingCalendarID, formatHandle(c.ID)); err != nil {
			return 0, fmt.Errorf("repointing calendar handle: %w", err)
		}
		handle = c.ID
	}

	plans, err := p.reg.ListPlansWithMapping(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing mapped plans: %w", err)
	}

	restored := 0
	for _, plan := range plans {
		if p.restorePlan(ctx, plan, handle) {
			restored++
		}
	}
	p.touchLastExecution(ctx)
	return restored, nil
}

// restorePlan runs the three restoration tiers for one plan. Reports
// whether the plan ended up with a confirmed or repaired projection.
func (p *Planner) restorePlan(ctx context.Context, plan store.Plan, calID int64) bool {
	oldEvent := *plan.PlanID

	// Tier 1: the mapping may still be valid.
	f, err := p.cal.EventByID(ctx, calID, oldEvent)
	if err != nil {
		slog.Error("checking plan event failed",
			"template_id", plan.TemplateID, "event_id", oldEvent, "error", err)
		return false
	}
	if f != nil {
		return true
	}

	// Tier 2: the event may have been recreated in the same calendar.
	found, _, err := p.cal.FindEventByUUID(ctx, calID, plan.UUID)
	if err != nil {
		slog.Error("searching calendar for plan uuid failed",
			"template_id", plan.TemplateID, "uuid", plan.UUID, "error", err)
		return false
	}
	if found != 0 {
		slog.Debug("found event by uuid", "uuid", plan.UUID,
			"event_id", found, "old_event", oldEvent)
		if found != oldEvent {
			if err := p.reg.SetPlanMapping(ctx, plan.TemplateID, &found); err != nil {
				slog.Error("updating plan mapping failed",
					"template_id", plan.TemplateID, "error", err)
				return false
			}
			slog.Info("updated plan mapping", "template_id", plan.TemplateID,
				"event_id", found)
		}
		return true
	}

	// Tier 3: rebuild from the event cache.
	cached, err := p.reg.FindCachedEventByUUID(ctx, plan.UUID)
	if err != nil {
		slog.Error("searching event cache failed",
			"template_id", plan.TemplateID, "uuid", plan.UUID, "error", err)
		return false
	}
	if cached != nil {
		insert := projection.Normalize(*cached)
		insert.CalendarID = calID
		newEvent, err := p.cal.InsertEvent(ctx, calID, insert)
		if err != nil {
			slog.Error("re-materializing plan event failed",
				"template_id", plan.TemplateID, "error", err)
			return false
		}
		if err := p.reg.SetPlanMapping(ctx, plan.TemplateID, &newEvent); err != nil {
			slog.Error("updating plan mapping failed",
				"template_id", plan.TemplateID, "error", err)
			return false
		}
		slog.Info("plan event reconstructed from cache",
			"template_id", plan.TemplateID, "event_id", newEvent)
		return true
	}

	// Unrecoverable: drop the projection, keep the plan. Ordinary plan
	// creation can re-materialize it later, just without history.
	slog.Warn("plan uuid found neither in calendar nor cache, clearing mapping",
		"template_id", plan.TemplateID, "uuid", plan.UUID)
	if err := p.reg.SetPlanMapping(ctx, plan.TemplateID, nil); err != nil {
		slog.Error("clearing plan mapping failed",
			"template_id", plan.TemplateID, "error", err)
	}
	return false
}
