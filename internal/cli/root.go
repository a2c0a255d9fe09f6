package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"planmirror/internal/calendar"
	"planmirror/internal/planner"
	"planmirror/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database   string // plan registry database
	CalendarDB string // local calendar provider database
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the planmirror CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "planmirror",
		Short: "planmirror - recurring plan calendar reconciliation",
		Long: `Mirror recurring transaction plans into a calendar store and keep
the two sides reconciled: verify the configured calendar, migrate plan
events when the calendar changes, and restore lost events from their
uuid fingerprints or the durable event cache.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "planmirror.db", "path to the plan registry database")
	cmd.PersistentFlags().StringVar(&opts.CalendarDB, "calendar-db", "calendar.db", "path to the local calendar database")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewProvisionCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewCalendarCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// session bundles the open registry, calendar store and bound planner
// that every command needs. Close releases both databases.
type session struct {
	reg *store.Store
	cal *calendar.LocalStore
	p   *planner.Planner
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	reg, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open plan registry", err)
	}
	cal, err := calendar.OpenLocal(opts.CalendarDB)
	if err != nil {
		reg.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open calendar database", err)
	}
	p := planner.New(reg, cal)
	if err := p.Bind(ctx); err != nil {
		cal.Close()
		reg.Close()
		return nil, WrapExitError(ExitCommandError, "failed to bind planner", err)
	}
	return &session{reg: reg, cal: cal, p: p}, nil
}

func (s *session) Close() {
	if err := s.cal.Close(); err != nil {
		slog.Error("closing calendar database", "error", err)
	}
	if err := s.reg.Close(); err != nil {
		slog.Error("closing plan registry", "error", err)
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// errorCode maps an error to the code shown in CLI output. Reconcile
// errors carry their own code; everything else is a command error.
func errorCode(err error) string {
	var re *planner.ReconcileError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return "COMMAND_ERROR"
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
