package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/service/ctl"
)

// validateCmd checks a schedule file without touching the daemon.
var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a schedule file for entries the daemon would skip.",
	Long: `Parses a schedule file and reports everything the daemon's tolerant scan
would silently swallow: unparseable times, unknown weekday tags, duplicate
or missing alarm ids. Exits non-zero when problems are found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		opts := commonOptions()

		return ctl.Validate(ctx, &opts, args[0])
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(validateCmd)
}
