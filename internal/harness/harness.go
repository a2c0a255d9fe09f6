package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"planmirror/internal/calendar"
	"planmirror/internal/planner"
	"planmirror/internal/projection"
	"planmirror/internal/store"
	"planmirror/internal/testutil"
)

// scenarioEpoch is the fixed clock value scenarios run at.
const scenarioEpoch = 1_750_000_000

// runner holds the per-scenario stores and planner.
type runner struct {
	reg   *store.Store
	cal   *calendar.LocalStore
	p     *planner.Planner
	clock *testutil.FixedClock

	// calendars tracks every handle the scenario created, for wipe.
	calendars []int64
}

// Run executes a scenario against fresh databases under dir and returns
// the result. Structural setup failures (unreadable databases, invalid
// plan seeds) return an error; domain-level mismatches are reported in
// the result instead.
func Run(scenario *Scenario, dir string) (*Result, error) {
	ctx := context.Background()

	reg, err := store.Open(filepath.Join(dir, "registry.db"))
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	defer reg.Close()

	cal, err := calendar.OpenLocal(filepath.Join(dir, "calendar.db"))
	if err != nil {
		return nil, fmt.Errorf("opening calendar store: %w", err)
	}
	defer cal.Close()

	clock := testutil.NewFixedClock(time.Unix(scenarioEpoch, 0))
	p := planner.New(reg, cal, planner.WithClock(clock))
	if err := p.Bind(ctx); err != nil {
		return nil, fmt.Errorf("binding planner: %w", err)
	}

	r := &runner{reg: reg, cal: cal, p: p, clock: clock}
	result := NewResult()

	for i, spec := range scenario.Plans {
		id, err := reg.CreatePlan(ctx, store.Plan{
			Title:       spec.Title,
			AmountCents: spec.Amount,
			Comment:     spec.Comment,
			Start:       spec.Start,
			AllDay:      spec.AllDay,
			Timezone:    spec.Timezone,
			RRule:       spec.RRule,
			UUID:        spec.UUID,
		})
		if err != nil {
			return nil, fmt.Errorf("seeding plan %d: %w", i+1, err)
		}
		if id != int64(i+1) {
			return nil, fmt.Errorf("seeding plan %d: got template id %d", i+1, id)
		}
	}

	for i, step := range scenario.Steps {
		ev := r.execute(ctx, i+1, step)
		result.Trace = append(result.Trace, ev)
		checkStep(result, i, ev, step.Expect)
	}

	for i, assertion := range scenario.Assertions {
		r.assert(ctx, result, i, assertion)
	}
	return result, nil
}

// execute runs one step and records its outcome as a trace event.
func (r *runner) execute(ctx context.Context, seq int, step Step) TraceEvent {
	ev := TraceEvent{Seq: seq, Op: step.Op}
	fail := func(err error) TraceEvent {
		ev.Error = err.Error()
		return ev
	}

	switch step.Op {
	case OpProvision:
		handle, err := r.p.Provision(ctx, true)
		if err != nil {
			return fail(err)
		}
		ev.Handle = handle
		r.noteCalendar(handle)

	case OpMaterialize:
		ev.Plan = step.Plan
		event, err := r.p.MaterializePlan(ctx, step.Plan)
		if err != nil {
			return fail(err)
		}
		ev.Event = event

	case OpCachePlanEvent:
		ev.Plan = step.Plan
		if err := r.cachePlanEvent(ctx, step.Plan); err != nil {
			return fail(err)
		}

	case OpDeletePlanEvent:
		ev.Plan = step.Plan
		if err := r.p.DeletePlanEvent(ctx, step.Plan); err != nil {
			return fail(err)
		}

	case OpCreateCalendar:
		name := step.Name
		if name == "" {
			name = planner.DefaultCalendarName
		}
		handle, err := r.cal.CreateCalendar(ctx, calendar.Attrs{
			AccountName: planner.DefaultAccountName,
			AccountType: calendar.AccountTypeLocal,
			Name:        name,
			DisplayName: name,
			SyncEvents:  true,
		})
		if err != nil {
			return fail(err)
		}
		ev.Handle = handle
		r.noteCalendar(handle)

	case OpDeleteCalendar:
		ev.Handle = step.Handle
		if _, err := r.cal.DeleteCalendar(ctx, step.Handle); err != nil {
			return fail(err)
		}

	case OpWipe:
		for _, handle := range r.calendars {
			if _, err := r.cal.DeleteCalendar(ctx, handle); err != nil {
				return fail(err)
			}
		}

	case OpDeleteEvent:
		ev.Event = step.Event
		if _, err := r.cal.DeleteEvent(ctx, step.Event); err != nil {
			return fail(err)
		}

	case OpInsertEvent:
		ev.Handle = step.Handle
		ev.Plan = step.Plan
		event, err := r.insertEvent(ctx, step.Handle, step.Plan)
		if err != nil {
			return fail(err)
		}
		ev.Event = event

	case OpSetCalendar:
		ev.Handle = step.Handle
		err := r.reg.SetSetting(ctx, store.SettingCalendarID,
			strconv.FormatInt(step.Handle, 10))
		if err != nil {
			return fail(err)
		}

	case OpUnsetCalendar:
		if err := r.reg.RemoveSetting(ctx, store.SettingCalendarID); err != nil {
			return fail(err)
		}

	case OpVerify:
		handle, state, err := r.p.CheckPlanner(ctx)
		ev.Handle = handle
		ev.State = string(state)
		if err != nil {
			return fail(err)
		}

	case OpRestore:
		n, err := r.p.RestoreAll(ctx)
		if err != nil {
			return fail(err)
		}
		ev.Restored = &n

	default:
		return fail(fmt.Errorf("unknown op %q", step.Op))
	}
	return ev
}

func (r *runner) noteCalendar(handle int64) {
	for _, h := range r.calendars {
		if h == handle {
			return
		}
	}
	r.calendars = append(r.calendars, handle)
}

// cachePlanEvent copies a plan's live event into the event cache, the
// way the original system snapshots events it is about to touch.
func (r *runner) cachePlanEvent(ctx context.Context, templateID int64) error {
	plan, err := r.reg.GetPlan(ctx, templateID)
	if err != nil {
		return err
	}
	if plan == nil || plan.PlanID == nil {
		return fmt.Errorf("plan %d has no event to cache", templateID)
	}
	v, _, err := r.reg.GetSetting(ctx, store.SettingCalendarID)
	if err != nil {
		return err
	}
	handle, _ := strconv.ParseInt(v, 10, 64)
	if handle == 0 {
		return fmt.Errorf("no planner calendar configured")
	}
	fields, err := r.cal.EventByID(ctx, handle, *plan.PlanID)
	if err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("event %d not found in calendar %d", *plan.PlanID, handle)
	}
	return r.reg.CacheEvent(ctx, *fields, r.clock.Now().Unix())
}

// insertEvent creates a foreign event carrying the plan's uuid token,
// simulating an event recreated by another program.
func (r *runner) insertEvent(ctx context.Context, handle, templateID int64) (int64, error) {
	plan, err := r.reg.GetPlan(ctx, templateID)
	if err != nil {
		return 0, err
	}
	if plan == nil {
		return 0, fmt.Errorf("no plan with template id %d", templateID)
	}
	return r.cal.InsertEvent(ctx, handle, projection.EventFields{
		Start:       plan.Start,
		RRule:       plan.RRule,
		Title:       plan.Title,
		Timezone:    plan.Timezone,
		Description: projection.AppendUUID(plan.Comment, plan.UUID),
	})
}

// checkStep validates a step's trace event against its expect clause.
func checkStep(res *Result, index int, ev TraceEvent, exp *StepExpect) {
	if exp == nil {
		if ev.Error != "" {
			res.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %s", index, ev.Op, ev.Error))
		}
		return
	}

	if exp.Error != "" {
		if ev.Error == "" {
			res.AddError(fmt.Sprintf("steps[%d] %s: expected error containing %q, got none", index, ev.Op, exp.Error))
		} else if !strings.Contains(ev.Error, exp.Error) {
			res.AddError(fmt.Sprintf("steps[%d] %s: error %q does not contain %q", index, ev.Op, ev.Error, exp.Error))
		}
	} else if ev.Error != "" {
		res.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %s", index, ev.Op, ev.Error))
	}

	if exp.Handle != nil && ev.Handle != *exp.Handle {
		res.AddError(fmt.Sprintf("steps[%d] %s: handle = %d, want %d", index, ev.Op, ev.Handle, *exp.Handle))
	}
	if exp.Event != nil && ev.Event != *exp.Event {
		res.AddError(fmt.Sprintf("steps[%d] %s: event = %d, want %d", index, ev.Op, ev.Event, *exp.Event))
	}
	if exp.State != "" && ev.State != exp.State {
		res.AddError(fmt.Sprintf("steps[%d] %s: state = %q, want %q", index, ev.Op, ev.State, exp.State))
	}
	if exp.Restored != nil {
		if ev.Restored == nil {
			res.AddError(fmt.Sprintf("steps[%d] %s: no restore count recorded", index, ev.Op))
		} else if *ev.Restored != *exp.Restored {
			res.AddError(fmt.Sprintf("steps[%d] %s: restored = %d, want %d", index, ev.Op, *ev.Restored, *exp.Restored))
		}
	}
}

// assert validates one final-state assertion.
func (r *runner) assert(ctx context.Context, res *Result, index int, a Assertion) {
	switch a.Type {
	case AssertMapping:
		plan, err := r.reg.GetPlan(ctx, a.Plan)
		if err != nil {
			res.AddError(fmt.Sprintf("assertions[%d]: reading plan %d: %v", index, a.Plan, err))
			return
		}
		if plan == nil {
			res.AddError(fmt.Sprintf("assertions[%d]: plan %d not found", index, a.Plan))
			return
		}
		mapped := plan.PlanID != nil
		if mapped != *a.Mapped {
			res.AddError(fmt.Sprintf("assertions[%d]: plan %d mapped = %v, want %v", index, a.Plan, mapped, *a.Mapped))
			return
		}
		if a.Event != nil {
			if plan.PlanID == nil || *plan.PlanID != *a.Event {
				res.AddError(fmt.Sprintf("assertions[%d]: plan %d event = %v, want %d", index, a.Plan, plan.PlanID, *a.Event))
			}
		}

	case AssertSetting:
		v, ok, err := r.reg.GetSetting(ctx, a.Key)
		if err != nil {
			res.AddError(fmt.Sprintf("assertions[%d]: reading setting %s: %v", index, a.Key, err))
			return
		}
		if a.Absent {
			if ok {
				res.AddError(fmt.Sprintf("assertions[%d]: setting %s = %q, want absent", index, a.Key, v))
			}
			return
		}
		if !ok {
			res.AddError(fmt.Sprintf("assertions[%d]: setting %s absent, want %q", index, a.Key, a.Value))
			return
		}
		if v != a.Value {
			res.AddError(fmt.Sprintf("assertions[%d]: setting %s = %q, want %q", index, a.Key, v, a.Value))
		}

	case AssertEventCount:
		n, err := r.cal.CountEvents(ctx, a.Handle)
		if err != nil {
			res.AddError(fmt.Sprintf("assertions[%d]: counting events in %d: %v", index, a.Handle, err))
			return
		}
		if n != *a.Count {
			res.AddError(fmt.Sprintf("assertions[%d]: calendar %d has %d events, want %d", index, a.Handle, n, *a.Count))
		}

	default:
		res.AddError(fmt.Sprintf("assertions[%d]: unknown type %q", index, a.Type))
	}
}
