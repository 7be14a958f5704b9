// Package main: configuration record commands (new, validate, show,
// diff, schedule).
package main

import (
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inkwell/internal/config"
	"inkwell/internal/schedule"
)

var (
	strictValidate bool
	scheduleEpochs int
)

// newCmd writes the reference configuration record
var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Write the reference configuration record",
	Long: `Writes the default handwriting-recognition seq2seq run configuration
to the given path (default config.json). A .yaml extension writes the
YAML rendering instead of JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

// validateCmd checks a record against every invariant
var validateCmd = &cobra.Command{
	Use:   "validate <config>",
	Short: "Validate a configuration record",
	Long: `Parses the record and checks every invariant: numeric bounds,
known optimizer/scheduler/loss names, the monitor grammar. With
--strict, unknown top-level sections are violations rather than
carried baggage.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

// showCmd prints the resolved record
var showCmd = &cobra.Command{
	Use:   "show <config>",
	Short: "Show the resolved configuration record",
	Long: `Prints the record as canonical JSON after defaults and environment
overrides (INKWELL_RUN_NAME, INKWELL_DATA_DIR, INKWELL_SAVE_DIR) are
applied.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

// diffCmd compares two records field by field
var diffCmd = &cobra.Command{
	Use:   "diff <config-a> <config-b>",
	Short: "Diff two configuration records",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

// scheduleCmd prints the learning-rate table a record implies
var scheduleCmd = &cobra.Command{
	Use:   "schedule <config>",
	Short: "Print the per-epoch learning rate table",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

func init() {
	validateCmd.Flags().BoolVar(&strictValidate, "strict", false,
		"treat unknown top-level sections as violations")
	scheduleCmd.Flags().IntVar(&scheduleEpochs, "epochs", 0,
		"number of epochs to print (default: trainer.epochs)")
}

func runNew(cmd *cobra.Command, args []string) error {
	path := "config.json"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", path)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return err
	}
	logger.Info("wrote reference configuration", zap.String("path", path))
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	err = cfg.Validate()
	if strictValidate {
		err = cfg.ValidateStrict()
	}
	if err != nil {
		return fmt.Errorf("%s is invalid:\n%w", args[0], err)
	}

	fmt.Printf("%s: OK\n", args[0])
	fmt.Printf("  name            %s\n", cfg.Name)
	fmt.Printf("  num_chars       %d\n", cfg.Arch.Args.NumChars)
	fmt.Printf("  hidden_dim      %d\n", cfg.Arch.Args.HiddenDim)
	fmt.Printf("  optimizer.type  %s\n", cfg.Optimizer.Type)
	fmt.Printf("  early_stop      %d\n", cfg.Trainer.EarlyStop)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	data, err := cfg.JSON()
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	a, err := config.Load(args[0])
	if err != nil {
		return err
	}
	b, err := config.Load(args[1])
	if err != nil {
		return err
	}

	diff := cmp.Diff(a, b)
	if diff == "" {
		fmt.Println("records are identical")
		return nil
	}
	fmt.Print(diff)
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	sched, err := schedule.FromConfig(cfg)
	if err != nil {
		return err
	}

	n := scheduleEpochs
	if n <= 0 {
		n = cfg.Trainer.Epochs
	}

	fmt.Printf("%s over %d epochs (base lr %g):\n", cfg.LRScheduler.Type, n, cfg.Optimizer.Args.LR)
	prev := -1.0
	for e, lr := range schedule.Table(sched, n) {
		// Collapse constant stretches: print only where the rate changes.
		if lr == prev {
			continue
		}
		fmt.Printf("  epoch %4d  lr %.8f\n", e, lr)
		prev = lr
	}
	return nil
}
