// Package registry persists a catalog of training runs in SQLite: the
// run's configuration record, its lifecycle status, and the per-epoch
// metric values reported against it. One registry file typically lives
// next to the save_dir it indexes.
package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"inkwell/internal/config"
	"inkwell/internal/metrics"
	"inkwell/internal/runs"
)

// Status is a run's lifecycle state in the registry.
type Status string

const (
	StatusRegistered   Status = "registered"
	StatusRunning      Status = "running"
	StatusCompleted    Status = "completed"
	StatusEarlyStopped Status = "early_stopped"
)

// ErrNotFound is returned when no run matches the given key.
var ErrNotFound = errors.New("run not found")

// Entry is one registered run.
type Entry struct {
	ID        string
	Name      string
	RunID     string
	Path      string
	Config    *config.Config
	Status    Status
	CreatedAt time.Time
}

// Registry is a SQLite-backed run catalog.
type Registry struct {
	db *sql.DB
	mu sync.Mutex
}

// Open initializes the registry database at the given path.
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		// NORMAL is safe under WAL and much faster than FULL.
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure registry: %w", err)
		}
	}

	r := &Registry{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Register records a run, idempotently on (name, run_id): registering
// the same run directory twice returns the existing entry.
func (r *Registry) Register(run *runs.Run) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, err := r.lookup("name = ? AND run_id = ?", run.Name, run.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	cfgJSON, err := json.Marshal(run.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Name:      run.Name,
		RunID:     run.ID,
		Path:      run.Dir,
		Config:    run.Config,
		Status:    StatusRegistered,
		CreatedAt: time.Now().UTC(),
	}

	_, err = r.db.Exec(
		`INSERT INTO runs (id, name, run_id, path, config, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Name, entry.RunID, entry.Path, string(cfgJSON),
		string(entry.Status), entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register run: %w", err)
	}
	return entry, nil
}

// Get fetches a run by registry ID or by run ID.
func (r *Registry) Get(key string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup("id = ? OR run_id = ?", key, key)
}

// List returns registered runs, newest first. An empty name matches all.
func (r *Registry) List(name string) ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `SELECT id, name, run_id, path, config, status, created_at
	          FROM runs`
	args := []interface{}{}
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// SetStatus updates a run's lifecycle state.
func (r *Registry) SetStatus(id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`UPDATE runs SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordEpoch stores one epoch's averaged results against a run.
// Re-recording an epoch overwrites its previous values.
func (r *Registry) RecordEpoch(id string, epoch int, results map[string]float64) error {
	if epoch <= 0 {
		return fmt.Errorf("epoch must be positive, got %d", epoch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup("id = ?", id); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for metric, value := range results {
		_, err := tx.Exec(
			`INSERT INTO epoch_metrics (run_id, epoch, metric, value)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(run_id, epoch, metric) DO UPDATE SET value = excluded.value`,
			id, epoch, metric, value,
		)
		if err != nil {
			return fmt.Errorf("failed to record metric %q: %w", metric, err)
		}
	}
	return tx.Commit()
}

// EpochResults returns the recorded metrics for one epoch of a run.
func (r *Registry) EpochResults(id string, epoch int) (map[string]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		`SELECT metric, value FROM epoch_metrics WHERE run_id = ? AND epoch = ?`,
		id, epoch,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query epoch metrics: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var metric string
		var value float64
		if err := rows.Scan(&metric, &value); err != nil {
			return nil, err
		}
		out[metric] = value
	}
	return out, rows.Err()
}

// Best returns the best epoch of a run under the given monitor and the
// monitored value at that epoch.
func (r *Registry) Best(id string, mon metrics.Monitor) (epoch int, value float64, err error) {
	if mon.Mode == metrics.ModeOff {
		return 0, 0, errors.New("monitor is off")
	}

	order := "ASC"
	if mon.Mode == metrics.ModeMax {
		order = "DESC"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRow(
		`SELECT epoch, value FROM epoch_metrics
		 WHERE run_id = ? AND metric = ?
		 ORDER BY value `+order+`, epoch ASC LIMIT 1`,
		id, mon.Metric,
	)
	if err := row.Scan(&epoch, &value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, fmt.Errorf("no %q values recorded: %w", mon.Metric, ErrNotFound)
		}
		return 0, 0, fmt.Errorf("failed to query best epoch: %w", err)
	}
	return epoch, value, nil
}

// lookup must be called with the mutex held.
func (r *Registry) lookup(where string, args ...interface{}) (*Entry, error) {
	row := r.db.QueryRow(
		`SELECT id, name, run_id, path, config, status, created_at
		 FROM runs WHERE `+where+` LIMIT 1`, args...)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var cfgJSON, status, createdAt string
	if err := row.Scan(&e.ID, &e.Name, &e.RunID, &e.Path, &cfgJSON, &status, &createdAt); err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if err := json.Unmarshal([]byte(cfgJSON), cfg); err != nil {
		return nil, fmt.Errorf("corrupt config for run %s: %w", e.ID, err)
	}
	e.Config = cfg
	e.Status = Status(status)

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp for run %s: %w", e.ID, err)
	}
	e.CreatedAt = t
	return &e, nil
}
