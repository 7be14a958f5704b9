// Package runs manages run directories under a configuration's
// save_dir: creating the per-run layout, re-emitting the configuration
// record into it for reproducibility, and discovering or watching runs
// that already exist.
//
// Layout, mirroring the training framework this record feeds:
//
//	<save_dir>/models/<name>/<run-id>/config.json
//	<save_dir>/log/<name>/<run-id>/
package runs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"inkwell/internal/config"
)

// discoverParallelism bounds concurrent config parsing during Discover.
const discoverParallelism = 8

// Run describes one run directory and its configuration record.
type Run struct {
	Name       string
	ID         string
	Dir        string
	LogDir     string
	ConfigPath string
	Config     *config.Config
	ModTime    time.Time
}

// NewRunID returns a run identifier derived from the given time, in the
// framework's MMDD_HHMMSS shape.
func NewRunID(t time.Time) string {
	return t.Format("0102_150405")
}

// ModelDir returns the checkpoint directory for a run.
func ModelDir(saveDir, name, id string) string {
	return filepath.Join(saveDir, "models", name, id)
}

// LogDir returns the event-stream directory for a run.
func LogDir(saveDir, name, id string) string {
	return filepath.Join(saveDir, "log", name, id)
}

// Prepare creates the directory pair for a fresh run of cfg and
// re-emits the record verbatim into the checkpoint directory. The
// returned Run points at the emitted copy.
func Prepare(cfg *config.Config, now time.Time) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to prepare run from invalid config: %w", err)
	}

	id := NewRunID(now)
	dir := ModelDir(cfg.Trainer.SaveDir, cfg.Name, id)
	logDir := LogDir(cfg.Trainer.SaveDir, cfg.Name, id)

	for _, d := range []string{dir, logDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
	}

	cfgPath := filepath.Join(dir, "config.json")
	if err := cfg.Save(cfgPath); err != nil {
		return nil, err
	}

	return &Run{
		Name:       cfg.Name,
		ID:         id,
		Dir:        dir,
		LogDir:     logDir,
		ConfigPath: cfgPath,
		Config:     cfg,
		ModTime:    now,
	}, nil
}

// load reads one run directory's config.json into a descriptor.
func load(cfgPath string) (*Run, error) {
	info, err := os.Stat(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(cfgPath)
	id := filepath.Base(dir)
	name := filepath.Base(filepath.Dir(dir))

	return &Run{
		Name:       name,
		ID:         id,
		Dir:        dir,
		LogDir:     LogDir(saveDirOf(dir), name, id),
		ConfigPath: cfgPath,
		Config:     cfg,
		ModTime:    info.ModTime(),
	}, nil
}

// saveDirOf recovers the save_dir root from a models/<name>/<id> dir.
func saveDirOf(modelDir string) string {
	return filepath.Dir(filepath.Dir(filepath.Dir(modelDir)))
}

// Discover walks <saveDir>/models/*/*/config.json and returns a
// descriptor per parseable run, newest first. Runs whose record fails
// to parse are logged and skipped; a corrupt run must not hide the
// healthy ones.
func Discover(ctx context.Context, saveDir string, log *zap.Logger) ([]*Run, error) {
	modelsDir := filepath.Join(saveDir, "models")
	names, err := os.ReadDir(modelsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read models directory: %w", err)
	}

	var paths []string
	for _, name := range names {
		if !name.IsDir() {
			continue
		}
		ids, err := os.ReadDir(filepath.Join(modelsDir, name.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read run directory: %w", err)
		}
		for _, id := range ids {
			if !id.IsDir() {
				continue
			}
			paths = append(paths, filepath.Join(modelsDir, name.Name(), id.Name(), "config.json"))
		}
	}

	var mu sync.Mutex
	var found []*Run

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(discoverParallelism)
	for _, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run, err := load(p)
			if err != nil {
				log.Warn("skipping unreadable run config",
					zap.String("path", p), zap.Error(err))
				return nil
			}
			mu.Lock()
			found = append(found, run)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].ModTime.Equal(found[j].ModTime) {
			return found[i].ModTime.After(found[j].ModTime)
		}
		return found[i].ConfigPath < found[j].ConfigPath
	})
	return found, nil
}
