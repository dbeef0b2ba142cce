// Package cli provides the command-line interface for juridoc.
package cli

import (
	"log/slog"

	"github.com/juridoc/ingest-go/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	verbose bool

	cfg    config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "juridoc",
	Short: "Legal document ingestion and chunking pipeline",
	Long: `Juridoc ingests legal documents (statutes, case law, regulations and
user uploads), splits them into token-bounded chunks along legal
structure boundaries, embeds the chunks and persists them for retrieval.

Jobs survive restarts through a durable on-disk queue.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		log, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		logger = log
		slog.SetDefault(log)
		cobra.OnFinalize(func() { _ = closeLog() })
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
}
