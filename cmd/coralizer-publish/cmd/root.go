package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coralizer/coralizer-release/internal/config"
	"github.com/coralizer/coralizer-release/internal/service/publisher"
	"github.com/coralizer/coralizer-release/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// envFile stores the dotenv file consulted for VERSION.
	envFile string
	// dryRun stages packages without uploading them.
	dryRun bool

	// rootCmd represents the release command.
	rootCmd = &cobra.Command{
		Use:   "coralizer-publish",
		Short: "Stage and publish coralizer npm packages.",
		Long: `Copies the prebuilt coralizer binaries for all six platforms into npm package
directories, stamps the release version and publishes them.

The version is taken from the VERSION environment variable, or from the
dotenv file when the variable is not set. Artifacts are expected under
artifacts/bin-<os>-<arch>/coralizer[.exe].

Depending on the configured layout the binaries either go into the bin
directory of the base package, or each into its own coralizer-<os>-<arch>
package which is published before the base package.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return publisher.Run(ctx, &publisher.Options{
				ConfigPath:     cfgPath,
				ConfigRequired: cmd.Flags().Changed("config"),
				EnvFile:        envFile,
				DryRun:         dryRun,
			})
		},
	}
)

// Execute runs the coralizer-publish CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFilename, "dotenv file to read VERSION from")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "stage packages and pass --dry-run to the publish command")
}
