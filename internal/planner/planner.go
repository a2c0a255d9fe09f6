package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"planmirror/internal/calendar"
	"planmirror/internal/projection"
	"planmirror/internal/store"
)

// Identity of the calendar this system owns. The account triple is
// fixed: the fingerprint path derived from it is what survives
// calendar deletion and recreation.
const (
	DefaultAccountName  = "Local Calendar"
	DefaultCalendarName = "PlanMirror"
	DefaultDisplayName  = "Plan calendar (PlanMirror)"
	DefaultColor        = "#558B2F"
)

// Clock abstracts wall time for the last-execution timestamp and the
// event cache. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Planner hosts the four reconciliation engines. All methods are
// synchronous; callers serialize concurrent invocations.
type Planner struct {
	reg   *store.Store
	cal   calendar.Store
	clock Clock
	attrs calendar.Attrs

	customAppPackage string
	customAppURI     string

	// current caches the configured handle so the change observer can
	// tell which calendar a new value replaces, and so writes the
	// planner itself performs (restore repointing, reverts) do not
	// re-trigger migration. Single-writer, guarded by the caller.
	current int64
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock injects a clock. Tests use a fixed one.
func WithClock(c Clock) Option {
	return func(p *Planner) { p.clock = c }
}

// WithCalendarAttrs overrides the owned calendar's identity and creation
// attributes.
func WithCalendarAttrs(attrs calendar.Attrs) Option {
	return func(p *Planner) { p.attrs = attrs }
}

// WithCustomApp sets the custom-launch package and URI prefix stamped
// onto projected events.
func WithCustomApp(pkg, uriPrefix string) Option {
	return func(p *Planner) {
		p.customAppPackage = pkg
		p.customAppURI = uriPrefix
	}
}

// New creates a Planner over the given registry and calendar store.
func New(reg *store.Store, cal calendar.Store, opts ...Option) *Planner {
	p := &Planner{
		reg:   reg,
		cal:   cal,
		clock: systemClock{},
		attrs: calendar.Attrs{
			AccountName: DefaultAccountName,
			AccountType: calendar.AccountTypeLocal,
			Name:        DefaultCalendarName,
			DisplayName: DefaultDisplayName,
			Color:       DefaultColor,
			AccessLevel: calendar.AccessOwner,
			Owner:       "private",
			SyncEvents:  true,
		},
		customAppPackage: "planmirror",
		customAppURI:     "planmirror://plan/",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bind loads the configured handle and subscribes the migration engine
// to calendar-handle changes. Call once at startup, before any settings
// writes that should migrate plan events.
func (p *Planner) Bind(ctx context.Context) error {
	v, _, err := p.reg.GetSetting(ctx, store.SettingCalendarID)
	if err != nil {
		return fmt.Errorf("bind planner: %w", err)
	}
	p.current = parseHandle(v)
	p.reg.Subscribe(store.SettingCalendarID, p.onCalendarChanged)
	return nil
}

// onCalendarChanged is the settings observer driving the migration
// engine. It compares against the in-process cached handle, not the
// observer's old value: writes the planner performs itself (repointing
// during restore, reverts on hard failure) pre-set the cache and are
// deliberately not treated as a calendar switch.
func (p *Planner) onCalendarChanged(ctx context.Context, _, newVal string) {
	oldID := p.current
	newID := parseHandle(newVal)
	if newID == oldID {
		return
	}
	p.current = newID
	if err := p.migrate(ctx, oldID, newID); err != nil {
		slog.Error("plan migration failed", "old", oldID, "new", newID, "error", err)
	}
}

// configuredHandle reads the persisted calendar handle; 0 means none.
func (p *Planner) configuredHandle(ctx context.Context) (int64, error) {
	v, _, err := p.reg.GetSetting(ctx, store.SettingCalendarID)
	if err != nil {
		return 0, err
	}
	return parseHandle(v), nil
}

// parseHandle converts a persisted handle string; empty or malformed
// values mean no calendar is configured.
func parseHandle(v string) int64 {
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func formatHandle(id int64) string {
	return strconv.FormatInt(id, 10)
}

// eventFieldsForPlan projects a plan into store event fields. The plan's
// uuid goes into the description as a delimited token; it is the only
// identity that survives event recreation.
func (p *Planner) eventFieldsForPlan(plan store.Plan, calendarID int64) projection.EventFields {
	return projection.Normalize(projection.EventFields{
		CalendarID:       calendarID,
		Start:            plan.Start,
		RRule:            plan.RRule,
		Title:            plan.Title,
		AllDay:           plan.AllDay,
		Timezone:         plan.Timezone,
		Description:      projection.AppendUUID(plan.Comment, plan.UUID),
		CustomAppPackage: p.customAppPackage,
		CustomAppURI:     p.customAppURI + formatHandle(plan.TemplateID),
	})
}

// touchLastExecution records a completed reconciliation pass. Failures
// are logged, not escalated: the timestamp is diagnostic state.
func (p *Planner) touchLastExecution(ctx context.Context) {
	ts := strconv.FormatInt(p.clock.Now().Unix(), 10)
	if err := p.reg.SetSetting(ctx, store.SettingLastExecution, ts); err != nil {
		slog.Warn("could not record last execution timestamp", "error", err)
	}
}
