package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/service/ctl"
)

// statusCmd renders the daemon's status counters.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and counters.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		opts := commonOptions()

		return ctl.Status(ctx, &opts)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(statusCmd)
}
