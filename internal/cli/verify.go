package cli

import (
	"github.com/spf13/cobra"

	"planmirror/internal/planner"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the configured planner calendar",
		Long: `Check that the configured planner calendar still exists and still
matches its stored fingerprint.

An invalid calendar (gone, or replaced by a different one under the
same handle) clears the stored configuration and exits nonzero. A
structural store failure leaves the configuration untouched and reports
the calendar state as unknown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}
	return cmd
}

type verifyResult struct {
	Handle int64  `json:"handle"`
	State  string `json:"state"` // "verified" | "invalid" | "unknown" | "unconfigured"
}

func (r verifyResult) String() string {
	if r.State == "unconfigured" {
		return "no planner calendar configured"
	}
	return "calendar " + formatInt(r.Handle) + ": " + r.State
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	handle, result, err := s.p.CheckPlanner(ctx)
	if err != nil {
		formatter.Failure(errorCode(err), err.Error())
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	if handle == 0 {
		return formatter.Success(verifyResult{State: "unconfigured"})
	}
	if err := formatter.Success(verifyResult{Handle: handle, State: string(result)}); err != nil {
		return err
	}
	if result == planner.VerifyInvalid {
		return NewExitError(ExitFailure, "planner calendar invalid; configuration cleared")
	}
	return nil
}
