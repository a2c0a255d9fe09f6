package cli

import (
	"github.com/spf13/cobra"
)

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Rebuild stale plan-event mappings",
		Long: `Rebuild stale plan-event mappings against the configured calendar.

Each mapped plan is checked in the calendar store; plans whose events
vanished are recovered by uuid search or re-created from the event
cache. Plans that cannot be recovered lose their mapping but stay in
the registry. Prints the number of confirmed or repaired plans.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(rootOpts, cmd)
		},
	}
	return cmd
}

type restoreResult struct {
	Restored int `json:"restored"`
}

func (r restoreResult) String() string {
	if r.Restored == 1 {
		return "1 plan restored"
	}
	return formatInt(int64(r.Restored)) + " plans restored"
}

func runRestore(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.p.RestoreAll(ctx)
	if err != nil {
		formatter.Failure(errorCode(err), err.Error())
		return WrapExitError(ExitFailure, "restore failed", err)
	}
	return formatter.Success(restoreResult{Restored: n})
}
