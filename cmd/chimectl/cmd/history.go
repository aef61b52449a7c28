package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/service/ctl"
)

var (
	// historyLimit caps the number of rows; zero uses the server default.
	historyLimit int
	// historyAlarmID restricts rows to one alarm when set.
	historyAlarmID string

	// historyCmd lists journal rows, newest first.
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recorded firings, newest first.",
		Long: `Lists rows from the daemon's firing journal. Requires the daemon to run
with a history file configured.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return ctl.History(ctx, &ctl.HistoryOptions{
				Options: commonOptions(),
				Limit:   historyLimit,
				AlarmID: historyAlarmID,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum rows to list (0 means server default)")
	historyCmd.Flags().StringVarP(&historyAlarmID, "alarm", "a", "", "only rows for this alarm id")
	rootCmd.AddCommand(historyCmd)
}
