// Package main: run bookkeeping commands (prepare, list, show, record,
// status, watch).
package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inkwell/internal/config"
	"inkwell/internal/metrics"
	"inkwell/internal/registry"
	"inkwell/internal/runs"
)

var (
	registryPath string
	recordEpoch  int
)

// runsCmd groups run bookkeeping
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage training run directories and the run registry",
	Long: `Run bookkeeping on top of a save_dir:

  prepare  - create a fresh run directory, emit the record, register it
  list     - list registered runs
  show     - show one run, with its best epoch when metrics exist
  record   - record one epoch's metric averages against a run
  status   - update a run's lifecycle status
  watch    - index runs into the registry as they appear on disk`,
}

var runsPrepareCmd = &cobra.Command{
	Use:   "prepare <config>",
	Short: "Prepare and register a fresh run directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsPrepare,
}

var runsListCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List registered runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one registered run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsRecordCmd = &cobra.Command{
	Use:   "record <id> <metric>=<value> ...",
	Short: "Record one epoch's metric averages against a run",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRunsRecord,
}

var runsStatusCmd = &cobra.Command{
	Use:   "status <id> <registered|running|completed|early_stopped>",
	Short: "Update a run's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE:  runRunsStatus,
}

var runsWatchCmd = &cobra.Command{
	Use:   "watch <save_dir>",
	Short: "Index runs into the registry as they appear",
	Long: `Watches <save_dir>/models and registers every run whose config.json
lands there. Existing runs are indexed once at startup. Stops on
SIGINT/SIGTERM.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsWatch,
}

func init() {
	runsCmd.PersistentFlags().StringVar(&registryPath, "registry", "",
		"registry database path (default: <save_dir>/registry.db)")
	runsRecordCmd.Flags().IntVar(&recordEpoch, "epoch", 1, "1-based epoch the averages belong to")

	runsCmd.AddCommand(runsPrepareCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsRecordCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsWatchCmd)
}

// openRegistry resolves the registry location: the --registry flag, or
// registry.db inside the given save_dir.
func openRegistry(saveDir string) (*registry.Registry, error) {
	path := registryPath
	if path == "" {
		if saveDir == "" {
			return nil, fmt.Errorf("no registry path: pass --registry or a save_dir")
		}
		path = filepath.Join(saveDir, "registry.db")
	}
	return registry.Open(path)
}

func runRunsPrepare(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	run, err := runs.Prepare(cfg, time.Now())
	if err != nil {
		return err
	}
	logger.Info("prepared run directory",
		zap.String("name", run.Name),
		zap.String("run_id", run.ID),
		zap.String("dir", run.Dir))

	reg, err := openRegistry(cfg.Trainer.SaveDir)
	if err != nil {
		return err
	}
	defer reg.Close()

	entry, err := reg.Register(run)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s/%s  %s\n", entry.ID, entry.Name, entry.RunID, entry.Path)
	return nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry("")
	if err != nil {
		return err
	}
	defer reg.Close()

	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	entries, err := reg.List(name)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no registered runs")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-14s  %s/%s  %s\n",
			e.CreatedAt.Format(time.RFC3339), e.Status, e.Name, e.RunID, e.ID)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry("")
	if err != nil {
		return err
	}
	defer reg.Close()

	entry, err := reg.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run     %s/%s\n", entry.Name, entry.RunID)
	fmt.Printf("id      %s\n", entry.ID)
	fmt.Printf("status  %s\n", entry.Status)
	fmt.Printf("path    %s\n", entry.Path)
	fmt.Printf("monitor %s\n", entry.Config.Trainer.Monitor)

	mon, err := metrics.ParseMonitor(entry.Config.Trainer.Monitor)
	if err != nil || mon.Mode == metrics.ModeOff {
		return nil
	}
	epoch, value, err := reg.Best(entry.ID, mon)
	if err != nil {
		fmt.Println("best    (no metrics recorded)")
		return nil
	}
	fmt.Printf("best    epoch %d, %s %g\n", epoch, mon.Metric, value)
	return nil
}

func runRunsRecord(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry("")
	if err != nil {
		return err
	}
	defer reg.Close()

	entry, err := reg.Get(args[0])
	if err != nil {
		return err
	}

	results := make(map[string]float64, len(args)-1)
	for _, pair := range args[1:] {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("expected <metric>=<value>, got %q", pair)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("bad value for %q: %w", key, err)
		}
		results[key] = value
	}

	if err := reg.RecordEpoch(entry.ID, recordEpoch, results); err != nil {
		return err
	}
	logger.Info("recorded epoch metrics",
		zap.String("run", args[0]), zap.Int("epoch", recordEpoch))
	return nil
}

func runRunsStatus(cmd *cobra.Command, args []string) error {
	status := registry.Status(args[1])
	switch status {
	case registry.StatusRegistered, registry.StatusRunning,
		registry.StatusCompleted, registry.StatusEarlyStopped:
	default:
		return fmt.Errorf("unknown status %q", args[1])
	}

	reg, err := openRegistry("")
	if err != nil {
		return err
	}
	defer reg.Close()

	entry, err := reg.Get(args[0])
	if err != nil {
		return err
	}
	return reg.SetStatus(entry.ID, status)
}

func runRunsWatch(cmd *cobra.Command, args []string) error {
	saveDir := args[0]

	reg, err := openRegistry(saveDir)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Index what is already on disk, then follow new arrivals.
	existing, err := runs.Discover(ctx, saveDir, logger)
	if err != nil {
		return err
	}
	for _, run := range existing {
		if _, err := reg.Register(run); err != nil {
			return err
		}
	}
	logger.Info("indexed existing runs", zap.Int("count", len(existing)))

	watcher, err := runs.Watch(saveDir, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping watch")
			return nil
		case run, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			entry, err := reg.Register(run)
			if err != nil {
				logger.Warn("failed to register run",
					zap.String("path", run.ConfigPath), zap.Error(err))
				continue
			}
			logger.Info("registered run",
				zap.String("name", entry.Name),
				zap.String("run_id", entry.RunID),
				zap.String("id", entry.ID))
		}
	}
}
