package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/service/ctl"
)

// initCmd writes a commented starter schedule file.
var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a commented starter schedule file.",
	Long: `Writes an example schedule with generated alarm ids and explanatory comments,
ready to edit and push. Refuses to overwrite an existing file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		var path string
		if len(args) > 0 {
			path = args[0]
		}

		opts := commonOptions()

		return ctl.Init(ctx, &opts, path)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(initCmd)
}
