package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/config"
	"inkwell/internal/metrics"
	"inkwell/internal/runs"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func prepareRun(t *testing.T, name string, at time.Time) *runs.Run {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Name = name
	cfg.Trainer.SaveDir = t.TempDir()
	run, err := runs.Prepare(cfg, at)
	require.NoError(t, err)
	return run
}

func TestRegister_Idempotent(t *testing.T) {
	reg := openTestRegistry(t)
	run := prepareRun(t, "hwr_seq2seq", time.Now())

	first, err := reg.Register(run)
	require.NoError(t, err)
	assert.Equal(t, StatusRegistered, first.Status)
	assert.Equal(t, "hwr_seq2seq", first.Name)

	second, err := reg.Register(run)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "re-registering must return the existing entry")

	entries, err := reg.List("")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGet_ByEitherKey(t *testing.T) {
	reg := openTestRegistry(t)
	run := prepareRun(t, "hwr_seq2seq", time.Now())
	entry, err := reg.Register(run)
	require.NoError(t, err)

	byID, err := reg.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, byID.ID)

	byRunID, err := reg.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, byRunID.ID)

	// The stored configuration round-trips through the registry.
	assert.Equal(t, 78, byID.Config.Arch.Args.NumChars)
	assert.Equal(t, 15, byID.Config.Trainer.EarlyStop)

	_, err = reg.Get("no-such-run")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_FiltersByName(t *testing.T) {
	reg := openTestRegistry(t)

	base := time.Date(2024, 8, 30, 10, 0, 0, 0, time.UTC)
	_, err := reg.Register(prepareRun(t, "run_a", base))
	require.NoError(t, err)
	_, err = reg.Register(prepareRun(t, "run_b", base.Add(time.Minute)))
	require.NoError(t, err)

	all, err := reg.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyA, err := reg.List("run_a")
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "run_a", onlyA[0].Name)
}

func TestRecordEpoch_AndBest(t *testing.T) {
	reg := openTestRegistry(t)
	entry, err := reg.Register(prepareRun(t, "hwr_seq2seq", time.Now()))
	require.NoError(t, err)

	losses := []float64{2.4, 1.9, 1.7, 1.8}
	for i, loss := range losses {
		err := reg.RecordEpoch(entry.ID, i+1, map[string]float64{
			"loss":     loss + 0.2,
			"val_loss": loss,
		})
		require.NoError(t, err)
	}

	mon := metrics.Monitor{Mode: metrics.ModeMin, Metric: "val_loss"}
	epoch, value, err := reg.Best(entry.ID, mon)
	require.NoError(t, err)
	assert.Equal(t, 3, epoch)
	assert.Equal(t, 1.7, value)

	maxMon := metrics.Monitor{Mode: metrics.ModeMax, Metric: "val_loss"}
	epoch, value, err = reg.Best(entry.ID, maxMon)
	require.NoError(t, err)
	assert.Equal(t, 1, epoch)
	assert.Equal(t, 2.4, value)

	results, err := reg.EpochResults(entry.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"loss": 1.9, "val_loss": 1.7}, results)

	// Re-recording an epoch overwrites.
	require.NoError(t, reg.RecordEpoch(entry.ID, 3, map[string]float64{"val_loss": 1.5}))
	epoch, value, err = reg.Best(entry.ID, mon)
	require.NoError(t, err)
	assert.Equal(t, 3, epoch)
	assert.Equal(t, 1.5, value)
}

func TestRecordEpoch_Validation(t *testing.T) {
	reg := openTestRegistry(t)
	entry, err := reg.Register(prepareRun(t, "hwr_seq2seq", time.Now()))
	require.NoError(t, err)

	assert.Error(t, reg.RecordEpoch(entry.ID, 0, map[string]float64{"loss": 1}))
	assert.ErrorIs(t, reg.RecordEpoch("ghost", 1, map[string]float64{"loss": 1}), ErrNotFound)
}

func TestBest_NoMetrics(t *testing.T) {
	reg := openTestRegistry(t)
	entry, err := reg.Register(prepareRun(t, "hwr_seq2seq", time.Now()))
	require.NoError(t, err)

	mon := metrics.Monitor{Mode: metrics.ModeMin, Metric: "val_loss"}
	_, _, err = reg.Best(entry.ID, mon)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = reg.Best(entry.ID, metrics.Monitor{Mode: metrics.ModeOff})
	assert.Error(t, err)
}

func TestSetStatus(t *testing.T) {
	reg := openTestRegistry(t)
	entry, err := reg.Register(prepareRun(t, "hwr_seq2seq", time.Now()))
	require.NoError(t, err)

	require.NoError(t, reg.SetStatus(entry.ID, StatusRunning))
	got, err := reg.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)

	require.NoError(t, reg.SetStatus(entry.ID, StatusEarlyStopped))
	got, err = reg.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusEarlyStopped, got.Status)

	assert.ErrorIs(t, reg.SetStatus("ghost", StatusCompleted), ErrNotFound)
}

func TestOpen_ReopensExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.db")

	reg, err := Open(path)
	require.NoError(t, err)
	entry, err := reg.Register(prepareRun(t, "hwr_seq2seq", time.Now()))
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Name, got.Name)
}
