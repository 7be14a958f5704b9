package registry

import "fmt"

// Schema versions:
// v1: runs and epoch_metrics tables
const currentSchemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		run_id     TEXT NOT NULL,
		path       TEXT NOT NULL,
		config     TEXT NOT NULL,
		status     TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (name, run_id)
	)`,
	`CREATE TABLE IF NOT EXISTS epoch_metrics (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		epoch  INTEGER NOT NULL,
		metric TEXT NOT NULL,
		value  REAL NOT NULL,
		PRIMARY KEY (run_id, epoch, metric)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name)`,
}

// migrate creates or upgrades the registry schema.
func (r *Registry) migrate() error {
	for _, stmt := range schema {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	var version int
	err := r.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		// Fresh database: stamp the current version.
		if _, err := r.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`,
			currentSchemaVersion); err != nil {
			return fmt.Errorf("failed to stamp schema version: %w", err)
		}
		return nil
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("registry schema version %d is newer than supported %d",
			version, currentSchemaVersion)
	}
	return nil
}
