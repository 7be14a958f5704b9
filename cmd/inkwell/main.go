// Package main implements the inkwell CLI: tooling around the training
// run configuration record of the handwriting-recognition seq2seq stack.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inkwell/internal/config"
)

const version = "1.0.0"

var (
	// Global flags
	verbosity int

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "inkwell - training run configuration toolkit",
	Long: `inkwell owns the lifecycle of the training run configuration record
used by the handwriting-recognition seq2seq stack: validation, run
directory emission, discovery, and a registry of past runs.

The record itself is a UTF-8 JSON object persisted verbatim alongside
every trained checkpoint for reproducibility.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		// Same mapping the record's trainer.verbosity documents.
		level := config.TrainerConfig{Verbosity: verbosity}.LogLevel()
		cfg.Level = zap.NewAtomicLevelAt(level)
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// versionCmd prints the toolkit version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the inkwell version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkwell %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 1,
		"console verbosity: 0 warnings, 1 info, 2 debug")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
