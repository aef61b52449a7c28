package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/service/ctl"
)

var (
	// pushWatch keeps the command running and re-pushes on file changes.
	pushWatch bool
	// pushDebounce coalesces write bursts while watching.
	pushDebounce time.Duration

	// pushCmd uploads a schedule file to the daemon.
	pushCmd = &cobra.Command{
		Use:   "push <file>",
		Short: "Push a schedule file to the daemon.",
		Long: `Validates a schedule file (problems are warnings), fills in missing alarm
ids with generated ones, and replaces the daemon's schedule wholesale.

With --watch the command stays in the foreground, watches the file and
re-pushes on every change, surviving editors that replace the file on save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return ctl.Push(ctx, &ctl.PushOptions{
				Options:  commonOptions(),
				Path:     args[0],
				Watch:    pushWatch,
				Debounce: pushDebounce,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	pushCmd.Flags().BoolVarP(&pushWatch, "watch", "w", false, "stay running and re-push when the file changes")
	pushCmd.Flags().DurationVar(&pushDebounce, "debounce", ctl.DefaultDebounce, "how long to coalesce write bursts while watching")
	rootCmd.AddCommand(pushCmd)
}
