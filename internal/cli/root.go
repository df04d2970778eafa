// Package cli provides the command-line interface for civickb.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/raphaelgruber/civickb/internal/config"
	"github.com/raphaelgruber/civickb/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and stage metrics
	cfg       config.Config
	logger    = slog.Default()
	closeLog  = func() error { return nil }
	collector *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "civickb",
	Short: "Build a voice assistant knowledge base from a municipal website",
	Long: `Civickb harvests the service catalogue of a municipal website, enriches
each service from its detail page, renders one knowledge document per
service, validates the corpus and publishes it to the assistant's
knowledge base.

Each stage can run on its own from the previous stage's output, or all
of them in sequence with 'civickb run'.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)

		collector = metrics.NewCollector()
		return nil
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	finish()
	return err
}

// finish reports stage metrics and closes the log file. It runs whether or
// not the command succeeded.
func finish() {
	if collector != nil {
		snap := collector.Snapshot()
		if verbose && len(snap.Operations) > 0 {
			snap.Print(os.Stderr)
		}
		if cfg.MetricsFile != "" {
			if err := snap.WriteTextfile(cfg.MetricsFile); err != nil {
				logger.Warn("failed to write metrics", "file", cfg.MetricsFile, "error", err)
			}
		}
	}
	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
}
