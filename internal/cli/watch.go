package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Schedule string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically verify and restore",
		Long: `Run verification and restoration on a schedule until interrupted.

Each pass checks the configured calendar (clearing the configuration
if the calendar turned invalid) and then rebuilds stale plan-event
mappings. Passes are serialized: a pass that overruns its slot delays
the next one instead of running concurrently.

Example:
  planmirror watch --schedule "@hourly"
  planmirror watch --schedule "*/5 * * * *" --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schedule, "schedule", "@hourly", "cron schedule for reconciliation passes")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	// The engines demand caller-enforced single-flight; the mutex keeps
	// an overrunning pass from overlapping the next tick.
	var mu sync.Mutex
	pass := func() {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		reconcilePass(ctx, s)
	}

	c := cron.New()
	if _, err := c.AddFunc(opts.Schedule, pass); err != nil {
		return WrapExitError(ExitCommandError, "invalid --schedule", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("watch starting", "schedule", opts.Schedule)
	fmt.Fprintln(cmd.OutOrStdout(), "Watching. Press Ctrl-C to stop.")

	// One pass up front so a freshly started watcher converges without
	// waiting for the first tick.
	pass()

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	slog.Info("watch stopped")
	return nil
}

func reconcilePass(ctx context.Context, s *session) {
	handle, result, err := s.p.CheckPlanner(ctx)
	if err != nil {
		slog.Error("planner check failed", "error", err)
		return
	}
	if handle == 0 {
		slog.Debug("no planner calendar configured, skipping restore")
		return
	}
	slog.Debug("planner checked", "calendar_id", handle, "state", string(result))

	n, err := s.p.RestoreAll(ctx)
	if err != nil {
		slog.Error("restore failed", "error", err)
		return
	}
	slog.Info("reconciliation pass complete", "calendar_id", handle, "restored", n)
}
