package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/service/ctl"
)

// watchCmd prints firings as the daemon pushes them.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print firings live as the daemon grants them.",
	Long: `Subscribes to the daemon's firing feed over the control socket and prints
each granted firing until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		opts := commonOptions()

		return ctl.Watch(ctx, &opts)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(watchCmd)
}
