package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"planmirror/internal/store"
)

// NewCalendarCommand creates the calendar command group.
func NewCalendarCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Manage the planner calendar setting",
		Long: `Manage the persisted planner calendar handle.

Setting a new handle triggers the migration engine: plan events are
moved from the previous calendar when it can still be verified, and
left in place otherwise. Unsetting disables calendar functionality
without touching plan mappings.`,
	}
	cmd.AddCommand(newCalendarSetCommand(rootOpts))
	cmd.AddCommand(newCalendarUnsetCommand(rootOpts))
	cmd.AddCommand(newCalendarShowCommand(rootOpts))
	return cmd
}

func newCalendarSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <handle>",
		Short: "Point the planner at a calendar",
		Long: `Point the planner at the calendar with the given handle.

The handle must resolve in the calendar store; plan events migrate to
it when the previous calendar is still verifiable.

Example:
  planmirror calendar set 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalendarSet(rootOpts, args[0], cmd)
		},
	}
}

func newCalendarUnsetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "unset",
		Short:         "Disable calendar functionality",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalendarUnset(rootOpts, cmd)
		},
	}
}

func newCalendarShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the configured calendar",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalendarShow(rootOpts, cmd)
		},
	}
}

func runCalendarSet(opts *RootOptions, arg string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	handle, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || handle <= 0 {
		return NewExitError(ExitCommandError, "handle must be a positive integer")
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	// The planner migrates plan events inside this settings write, on
	// this goroutine, before SetSetting returns.
	if err := s.reg.SetSetting(ctx, store.SettingCalendarID, formatInt(handle)); err != nil {
		return WrapExitError(ExitCommandError, "failed to store calendar handle", err)
	}

	// The migration may have rejected the handle (calendar not found)
	// and cleared the setting again; report what actually stuck.
	v, ok, err := s.reg.GetSetting(ctx, store.SettingCalendarID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read back calendar handle", err)
	}
	if !ok || v != formatInt(handle) {
		formatter.Failure("CALENDAR_GONE", "calendar "+arg+" not found; configuration cleared")
		return NewExitError(ExitFailure, "calendar "+arg+" not found")
	}
	return formatter.Success("calendar set to " + arg)
}

func runCalendarUnset(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.reg.RemoveSetting(ctx, store.SettingCalendarID); err != nil {
		return WrapExitError(ExitCommandError, "failed to remove calendar handle", err)
	}
	return formatter.Success("calendar unset; plan mappings kept")
}

type calendarInfo struct {
	Handle int64  `json:"handle"`
	Path   string `json:"path,omitempty"`
}

func (c calendarInfo) String() string {
	if c.Handle == 0 {
		return "no planner calendar configured"
	}
	return "calendar " + formatInt(c.Handle) + " (" + c.Path + ")"
}

func runCalendarShow(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	v, ok, err := s.reg.GetSetting(ctx, store.SettingCalendarID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read calendar handle", err)
	}
	if !ok {
		return formatter.Success(calendarInfo{})
	}
	handle, _ := strconv.ParseInt(v, 10, 64)
	path, _, err := s.reg.GetSetting(ctx, store.SettingCalendarPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read calendar fingerprint", err)
	}
	return formatter.Success(calendarInfo{Handle: handle, Path: path})
}
