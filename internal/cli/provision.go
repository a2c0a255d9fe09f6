package cli

import (
	"github.com/spf13/cobra"
)

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Find or create the planner calendar",
		Long: `Find or create the planner calendar in the calendar store.

Searches for a calendar matching the planner's account triple and
creates one when none exists, then persists its handle and fingerprint.
Safe to run repeatedly: an existing calendar is reused, not duplicated.

Example:
  planmirror provision --db ./planmirror.db --calendar-db ./calendar.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(rootOpts, cmd)
		},
	}
	return cmd
}

type provisionResult struct {
	Handle int64  `json:"handle"`
	Path   string `json:"path"`
}

func (r provisionResult) String() string {
	return "planner calendar ready: handle " + formatInt(r.Handle) + " (" + r.Path + ")"
}

func runProvision(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	handle, err := s.p.Provision(ctx, true)
	if err != nil {
		formatter.Failure(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "provisioning failed", err)
	}

	c, err := s.cal.CalendarByID(ctx, handle)
	if err != nil || c == nil {
		return WrapExitError(ExitCommandError, "provisioned calendar unreadable", err)
	}
	return formatter.Success(provisionResult{Handle: handle, Path: c.Path()})
}
