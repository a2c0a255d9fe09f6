package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"planmirror/internal/planner"
	"planmirror/internal/projection"
	"planmirror/internal/store"
)

// NewPlanCommand creates the plan command group.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage recurring transaction plans",
	}
	cmd.AddCommand(newPlanAddCommand(rootOpts))
	cmd.AddCommand(newPlanListCommand(rootOpts))
	cmd.AddCommand(newPlanRemoveCommand(rootOpts))
	return cmd
}

// PlanAddOptions holds flags for the plan add command.
type PlanAddOptions struct {
	*RootOptions
	Title    string
	Amount   int64
	Comment  string
	Start    int64
	AllDay   bool
	Timezone string
	RRule    string
}

func newPlanAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a plan and project it into the calendar",
		Long: `Create a recurring transaction plan and project it into the
configured calendar. Without a configured calendar the plan is created
unmapped; a later restore or calendar set picks it up.

Example:
  planmirror plan add --title Rent --amount -120000 \
    --start 1735689600 --rrule "FREQ=MONTHLY" --timezone Europe/Berlin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "plan title (required)")
	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "amount in cents, negative for expenses")
	cmd.Flags().StringVar(&opts.Comment, "comment", "", "free-form comment")
	cmd.Flags().Int64Var(&opts.Start, "start", 0, "first occurrence as Unix timestamp (required)")
	cmd.Flags().BoolVar(&opts.AllDay, "all-day", false, "all-day plan")
	cmd.Flags().StringVar(&opts.Timezone, "timezone", "UTC", "IANA timezone of the plan")
	cmd.Flags().StringVar(&opts.RRule, "rrule", "", "recurrence rule (RFC 5545 RRULE content)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func newPlanListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List plans",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanList(rootOpts, cmd)
		},
	}
}

func newPlanRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <template-id>",
		Short: "Remove a plan and its calendar event",
		Long: `Remove a plan from the registry. The plan's calendar event is
captured into the event cache and then deleted; the cache row outlives
the plan so nothing about the deletion is lossy until the cache is
pruned.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanRemove(rootOpts, args[0], cmd)
		},
	}
}

type planAddResult struct {
	TemplateID int64  `json:"template_id"`
	UUID       string `json:"uuid"`
	EventID    *int64 `json:"event_id,omitempty"`
}

func (r planAddResult) String() string {
	if r.EventID == nil {
		return fmt.Sprintf("plan %d created (no calendar configured, not projected)", r.TemplateID)
	}
	return fmt.Sprintf("plan %d created, projected as event %d", r.TemplateID, *r.EventID)
}

func runPlanAdd(opts *PlanAddOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.RRule != "" {
		if err := projection.ValidateRRule(opts.RRule); err != nil {
			return WrapExitError(ExitCommandError, "invalid --rrule", err)
		}
	}

	s, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.reg.CreatePlan(ctx, store.Plan{
		Title:       opts.Title,
		AmountCents: opts.Amount,
		Comment:     opts.Comment,
		Start:       opts.Start,
		AllDay:      opts.AllDay,
		Timezone:    opts.Timezone,
		RRule:       opts.RRule,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create plan", err)
	}

	result := planAddResult{TemplateID: id}
	eventID, err := s.p.MaterializePlan(ctx, id)
	switch {
	case errors.Is(err, planner.ErrNotConfigured):
		// Plan stays valid and unmapped.
	case err != nil:
		formatter.Failure(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "plan created but not projected", err)
	default:
		result.EventID = &eventID
	}

	plan, err := s.reg.GetPlan(ctx, id)
	if err == nil && plan != nil {
		result.UUID = plan.UUID
	}
	return formatter.Success(result)
}

func runPlanList(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	plans, err := s.reg.ListPlans(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list plans", err)
	}

	if opts.Format == "json" {
		return formatter.Success(plans)
	}
	if len(plans) == 0 {
		fmt.Fprintln(formatter.Writer, "no plans")
		return nil
	}
	for _, p := range plans {
		mapping := "unmapped"
		if p.PlanID != nil {
			mapping = "event " + formatInt(*p.PlanID)
		}
		rule := p.RRule
		if rule == "" {
			rule = "one-shot"
		}
		fmt.Fprintf(formatter.Writer, "[%d] %s  start=%d  %s  %s\n",
			p.TemplateID, p.Title, p.Start, rule, mapping)
	}
	return nil
}

func runPlanRemove(opts *RootOptions, arg string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return NewExitError(ExitCommandError, "template id must be an integer")
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	// Cache-then-delete the calendar event first so the registry row
	// is still present while the event fields are captured.
	if err := s.p.DeletePlanEvent(ctx, id); err != nil {
		formatter.Failure(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "failed to delete plan event", err)
	}
	if err := s.reg.DeletePlan(ctx, id); err != nil {
		return WrapExitError(ExitCommandError, "failed to delete plan", err)
	}
	return formatter.Success("plan " + arg + " removed")
}
