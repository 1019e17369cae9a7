package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clipfeed/clipfeed/internal/config"
	"github.com/clipfeed/clipfeed/internal/service/updater"
	"github.com/clipfeed/clipfeed/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string

	// restartAfterUpdate relaunches the original command line once a new
	// release has been applied.
	restartAfterUpdate bool

	// rootCmd represents the base command of the clipfeed update client.
	rootCmd = &cobra.Command{
		Use:   "clipfeed",
		Short: "Keep the clipfeed executable up to date",
	}

	// updateCmd downloads and applies the resolved release.
	updateCmd = &cobra.Command{
		Use:   "update [CHANNEL][@TAG]",
		Short: "Update to the latest release of the current channel, or to the given target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updater.Run(cmd.Context(), &updater.Options{
				ConfigPath: configPath,
				Target:     targetFromArgs(args),
				Restart:    restartAfterUpdate,
			})
		},
	}

	// checkUpdateCmd reports availability without touching the executable.
	checkUpdateCmd = &cobra.Command{
		Use:   "check-update [CHANNEL][@TAG]",
		Short: "Check whether a newer release is available",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updater.Check(cmd.Context(), &updater.Options{
				ConfigPath: configPath,
				Target:     targetFromArgs(args),
			})
		},
	}
)

// targetFromArgs extracts the optional update target argument.
func targetFromArgs(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}

// Execute runs the clipfeed CLI, runs any queued post-exit cleanup, and
// exits with the update failure code when an error was reported.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	// Deferred work such as backup deletion on Windows must run even when
	// the command failed.
	updater.RunPostExitCleanups()

	if err != nil {
		os.Exit(updater.FailureExitCode)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	updateCmd.Flags().BoolVar(&restartAfterUpdate, "restart", false, "relaunch the original command line after updating")

	rootCmd.AddCommand(updateCmd, checkUpdateCmd)
}
