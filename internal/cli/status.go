package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"planmirror/internal/store"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show planner configuration and plan mapping health",
		Long: `Show the persisted planner settings and, per plan, whether its
calendar projection is intact, dangling (mapped to a missing event) or
absent. Dangling mappings are reported, not repaired; run restore to
repair them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
	return cmd
}

// Plan projection states reported by status.
const (
	planMapped   = "mapped"
	planDangling = "dangling"
	planUnmapped = "unmapped"
)

type planStatus struct {
	TemplateID int64  `json:"template_id"`
	Title      string `json:"title"`
	UUID       string `json:"uuid"`
	EventID    *int64 `json:"event_id,omitempty"`
	State      string `json:"state"`
}

type statusReport struct {
	CalendarID    int64        `json:"calendar_id,omitempty"`
	CalendarPath  string       `json:"calendar_path,omitempty"`
	LastExecution int64        `json:"last_execution,omitempty"`
	Plans         []planStatus `json:"plans"`
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	report := statusReport{Plans: []planStatus{}}
	if v, ok, err := s.reg.GetSetting(ctx, store.SettingCalendarID); err != nil {
		return WrapExitError(ExitCommandError, "failed to read settings", err)
	} else if ok {
		report.CalendarID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, _, err := s.reg.GetSetting(ctx, store.SettingCalendarPath); err != nil {
		return WrapExitError(ExitCommandError, "failed to read settings", err)
	} else {
		report.CalendarPath = v
	}
	if v, ok, err := s.reg.GetSetting(ctx, store.SettingLastExecution); err != nil {
		return WrapExitError(ExitCommandError, "failed to read settings", err)
	} else if ok {
		report.LastExecution, _ = strconv.ParseInt(v, 10, 64)
	}

	plans, err := s.reg.ListPlans(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list plans", err)
	}
	for _, p := range plans {
		ps := planStatus{
			TemplateID: p.TemplateID,
			Title:      p.Title,
			UUID:       p.UUID,
			EventID:    p.PlanID,
			State:      planUnmapped,
		}
		if p.PlanID != nil {
			ps.State = planDangling
			if report.CalendarID != 0 {
				f, err := s.cal.EventByID(ctx, report.CalendarID, *p.PlanID)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to check plan event", err)
				}
				if f != nil {
					ps.State = planMapped
				}
			}
		}
		report.Plans = append(report.Plans, ps)
	}

	if opts.Format == "json" {
		return formatter.Success(report)
	}
	printStatus(formatter, report)
	return nil
}

func printStatus(f *OutputFormatter, r statusReport) {
	if r.CalendarID == 0 {
		fmt.Fprintln(f.Writer, "calendar:       not configured")
	} else {
		fmt.Fprintf(f.Writer, "calendar:       %d (%s)\n", r.CalendarID, r.CalendarPath)
	}
	if r.LastExecution != 0 {
		fmt.Fprintf(f.Writer, "last execution: %d\n", r.LastExecution)
	}
	fmt.Fprintf(f.Writer, "plans:          %d\n", len(r.Plans))
	for _, p := range r.Plans {
		if p.EventID != nil {
			fmt.Fprintf(f.Writer, "  [%d] %s  %s (event %d)\n", p.TemplateID, p.Title, p.State, *p.EventID)
		} else {
			fmt.Fprintf(f.Writer, "  [%d] %s  %s\n", p.TemplateID, p.Title, p.State)
		}
	}
}
