package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mettallan/jmh-lucene/internal/config"
	"github.com/mettallan/jmh-lucene/internal/logger"
	"github.com/mettallan/jmh-lucene/internal/service/releaser"
	"github.com/mettallan/jmh-lucene/internal/version"
)

var (
	// configPath to the release settings YAML file.
	configPath string

	// outputDir optionally overrides the configured output directory.
	outputDir string

	// skipSigning disables signing even when the settings enable it.
	skipSigning bool

	// logLevel sets the logging verbosity.
	logLevel string

	// rootCmd represents the base command for assembling the release distribution.
	rootCmd = &cobra.Command{
		Use:   "release-packager",
		Short: "Assemble the release distribution from built artifacts",
		Long: "Stage built component artifacts into a distribution tree, package it " +
			"into tar+gzip and zip archives, export a source snapshot, write SHA-512 " +
			"checksums, and optionally produce detached signatures.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &releaser.Options{
				ConfigPath:  configPath,
				OutputDir:   outputDir,
				SkipSigning: skipSigning,
			}

			return releaser.Run(ctx, options)
		},
	}
)

// Execute runs the release-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to release settings file")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "override the configured output directory")
	rootCmd.Flags().BoolVar(&skipSigning, "skip-signing", false, "do not sign the produced archives")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
}
