package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chimed/chimed/internal/service/ctl"
	"github.com/chimed/chimed/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// socketPath overrides the control socket path from configuration.
	socketPath string

	// rootCmd represents the base command for the schedule authoring CLI.
	rootCmd = &cobra.Command{
		Use:   "chimectl",
		Short: "Author alarm schedules and control a running chimed.",
		Long: `chimectl owns the alarm schedule: it writes starter files, validates them,
and pushes them into a running chimed daemon over the control socket.

It also inspects the daemon: the held schedule, status counters, the firing
journal, and a live feed of firings. Due-ness is always computed by the
daemon; chimectl only authors and reports.`,
	}
)

// commonOptions assembles the options shared by every subcommand.
func commonOptions() ctl.Options {
	return ctl.Options{
		ConfigPath: configPath,
		SocketPath: socketPath,
	}
}

// Execute runs the chimectl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup persistent flags shared by all subcommands. An empty config path
	// means "use the default file when it exists, built-in defaults if not".
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "", "control socket path override")
}
