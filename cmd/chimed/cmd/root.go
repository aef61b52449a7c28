package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/config"
	"github.com/chimed/chimed/internal/service/daemon"
	"github.com/chimed/chimed/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// socketPath overrides the control socket path from configuration.
	socketPath string
	// webAddr overrides the ops HTTP listen address from configuration.
	webAddr string

	// rootCmd represents the base command for running the alarm daemon.
	rootCmd = &cobra.Command{
		Use:   "chimed",
		Short: "Run the alarm scheduling daemon.",
		Long: `Starts the background daemon that holds the alarm schedule and fires alerts.

The daemon scans the schedule on a fixed cadence and fires an alarm in the
minute it becomes due, deduplicating repeats with a per-alarm cooldown.
Schedules are pushed into it with chimectl over a unix control socket;
the daemon itself never edits them. Granted firings go to the configured
presenters (log, command, webhook) and to connected chimectl watchers.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &daemon.Options{
				ConfigPath: configPath,
				SocketPath: socketPath,
				WebAddr:    webAddr,
			}

			return daemon.Run(ctx, options)
		},
	}
)

// Execute runs the chimed CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&socketPath, "socket", "s", "", "control socket path override")
	rootCmd.Flags().StringVarP(&webAddr, "web-addr", "w", "", "ops HTTP listen address override")
}
