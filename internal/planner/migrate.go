package planner

import (
	"context"
	"fmt"
	"log/slog"

	"planmirror/internal/projection"
	"planmirror/internal/store"
)

// migrate reacts to the configured calendar handle changing from oldID
// to newID (0 means none).
//
// Per-plan moves are independent: a failure on one plan is logged and
// the rest proceed. There is no global transaction; a partially
// migrated state is valid and later repaired by the restoration engine.
func (p *Planner) migrate(ctx context.Context, oldID, newID int64) error {
	if newID == oldID {
		return nil
	}

	if newID == 0 {
		// Feature disabled. Plans keep their now-dangling plan_id on
		// purpose: a later re-enable plus restore can still find the
		// events through the fingerprint.
		slog.Info("planner calendar unset, clearing fingerprint")
		if err := p.reg.RemoveSetting(ctx, store.SettingCalendarPath); err != nil {
			return fmt.Errorf("clearing calendar fingerprint: %w", err)
		}
		return nil
	}

	// If the old calendar cannot be positively re-identified we refuse
	// to move events out of it: the handle might alias an unrelated
	// calendar by now.
	safeToMove := true
	if oldID != 0 {
		res, err := p.Verify(ctx, oldID)
		if res != VerifyVerified {
			safeToMove = false
			slog.Warn("old planner calendar could not be verified",
				"calendar_id", oldID, "result", res, "error", err)
		}
	}

	// Resolve and persist the new fingerprint. Without it every later
	// verification would fail, so failure to resolve is a hard error:
	// revert the configuration to none.
	c, err := p.cal.CalendarByID(ctx, newID)
	if err != nil || c == nil {
		slog.Error("could not retrieve configured calendar",
			"calendar_id", newID, "error", err)
		p.current = 0 // pre-set so the revert below is not treated as another switch
		if rerr := p.reg.RemoveSetting(ctx, store.SettingCalendarPath); rerr != nil {
			slog.Error("could not clear calendar fingerprint", "error", rerr)
		}
		if rerr := p.reg.RemoveSetting(ctx, store.SettingCalendarID); rerr != nil {
			slog.Error("could not revert calendar handle", "error", rerr)
		}
		if err != nil {
			return newStoreFailure("retrieving configured calendar", newID, err)
		}
		return newCalendarGone(newID)
	}
	slog.Info("storing calendar path", "path", c.Path())
	if err := p.reg.SetSetting(ctx, store.SettingCalendarPath, c.Path()); err != nil {
		return fmt.Errorf("storing calendar fingerprint: %w", err)
	}

	if oldID == 0 {
		// Nothing to move; future plan events are created directly
		// under the new calendar.
		return nil
	}
	if !safeToMove {
		// Plans keep pointing at events under the untrusted old handle;
		// the restoration engine discovers them as stale later.
		slog.Warn("skipping plan event migration", "old", oldID, "new", newID)
		return nil
	}

	plans, err := p.reg.ListPlansWithMapping(ctx)
	if err != nil {
		return fmt.Errorf("listing mapped plans: %w", err)
	}
	for _, plan := range plans {
		p.movePlanEvent(ctx, plan, oldID, newID)
	}
	return nil
}

// movePlanEvent copies one plan's event from the old calendar to the new
// one: read (filtered to the old calendar), insert under the new,
// repoint the mapping, delete the old event. Any failure leaves the plan
// for the restoration engine.
func (p *Planner) movePlanEvent(ctx context.Context, plan store.Plan, oldID, newID int64) {
	oldEvent := *plan.PlanID

	fields, err := p.cal.EventByID(ctx, oldID, oldEvent)
	if err != nil {
		slog.Error("reading plan event failed",
			"template_id", plan.TemplateID, "event_id", oldEvent, "error", err)
		return
	}
	if fields == nil {
		slog.Debug("plan event not found under old calendar, skipping",
			"template_id", plan.TemplateID, "event_id", oldEvent)
		return
	}

	insert := projection.Normalize(*fields)
	insert.CalendarID = newID
	newEvent, err := p.cal.InsertEvent(ctx, newID, insert)
	if err != nil {
		slog.Error("copying plan event failed",
			"template_id", plan.TemplateID, "event_id", oldEvent, "error", err)
		return
	}
	slog.Info("event copied", "template_id", plan.TemplateID,
		"old_event", oldEvent, "new_event", newEvent)

	if err := p.reg.SetPlanMapping(ctx, plan.TemplateID, &newEvent); err != nil {
		// Keep the old event in place: the plan still points at it and
		// a duplicate in the new calendar beats a lost one.
		slog.Error("updating plan mapping failed",
			"template_id", plan.TemplateID, "error", err)
		return
	}
	if _, err := p.cal.DeleteEvent(ctx, oldEvent); err != nil {
		slog.Warn("deleting old plan event failed",
			"template_id", plan.TemplateID, "event_id", oldEvent, "error", err)
	}
}
