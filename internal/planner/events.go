package planner

import (
	"context"
	"fmt"
	"log/slog"
)

// MaterializePlan projects a plan into the configured calendar and
// records the mapping. Returns the new event's handle.
//
// Returns ErrNotConfigured when no planner calendar is set; the plan
// stays valid and unmapped.
func (p *Planner) MaterializePlan(ctx context.Context, templateID int64) (int64, error) {
	plan, err := p.reg.GetPlan(ctx, templateID)
	if err != nil {
		return 0, err
	}
	if plan == nil {
		return 0, fmt.Errorf("no plan with template id %d", templateID)
	}

	handle, err := p.configuredHandle(ctx)
	if err != nil {
		return 0, err
	}
	if handle == 0 {
		return 0, ErrNotConfigured
	}

	event, err := p.cal.InsertEvent(ctx, handle, p.eventFieldsForPlan(*plan, handle))
	if err != nil {
		return 0, newStoreFailure("inserting plan event", handle, err)
	}
	if err := p.reg.SetPlanMapping(ctx, templateID, &event); err != nil {
		return 0, err
	}
	slog.Info("plan materialized", "template_id", templateID, "event_id", event)
	return event, nil
}

// DeletePlanEvent removes a plan's event from the calendar. The event's
// projected fields are written to the durable event cache first,
// synchronously: the cache row is the restoration engine's last-resort
// reconstruction source once the live event is gone.
func (p *Planner) DeletePlanEvent(ctx context.Context, templateID int64) error {
	plan, err := p.reg.GetPlan(ctx, templateID)
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("no plan with template id %d", templateID)
	}
	if plan.PlanID == nil {
		return nil
	}

	handle, err := p.configuredHandle(ctx)
	if err != nil {
		return err
	}
	if handle != 0 {
		f, err := p.cal.EventByID(ctx, handle, *plan.PlanID)
		if err != nil {
			return newStoreFailure("reading plan event before delete", handle, err)
		}
		if f != nil {
			if err := p.reg.CacheEvent(ctx, *f, p.clock.Now().Unix()); err != nil {
				return fmt.Errorf("caching plan event before delete: %w", err)
			}
			if _, err := p.cal.DeleteEvent(ctx, *plan.PlanID); err != nil {
				return newStoreFailure("deleting plan event", handle, err)
			}
			slog.Info("plan event deleted", "template_id", templateID,
				"event_id", *plan.PlanID)
		}
	}
	return p.reg.SetPlanMapping(ctx, templateID, nil)
}
