package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/service/ctl"
)

// showCmd renders the schedule the daemon currently holds.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the daemon's current schedule.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		opts := commonOptions()

		return ctl.Show(ctx, &opts)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(showCmd)
}
