package runs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"inkwell/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitForRun(t *testing.T, w *Watcher) *Run {
	t.Helper()
	select {
	case run, ok := <-w.Events():
		require.True(t, ok, "event channel closed early")
		return run
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run event")
		return nil
	}
}

func TestWatcher_SeesNewRun(t *testing.T) {
	saveDir := t.TempDir()

	w, err := Watch(saveDir, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	cfg := config.DefaultConfig()
	cfg.Trainer.SaveDir = saveDir
	prepared, err := Prepare(cfg, time.Now())
	require.NoError(t, err)

	run := waitForRun(t, w)
	assert.Equal(t, prepared.ID, run.ID)
	assert.Equal(t, cfg.Name, run.Name)
	assert.Equal(t, prepared.ConfigPath, run.ConfigPath)
}

func TestWatcher_DeduplicatesRewrites(t *testing.T) {
	saveDir := t.TempDir()

	w, err := Watch(saveDir, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	cfg := config.DefaultConfig()
	cfg.Trainer.SaveDir = saveDir
	prepared, err := Prepare(cfg, time.Now())
	require.NoError(t, err)

	_ = waitForRun(t, w)

	// Rewriting the same record must not produce a second event.
	require.NoError(t, cfg.Save(prepared.ConfigPath))
	select {
	case run, ok := <-w.Events():
		if ok {
			t.Errorf("unexpected duplicate event for %s", run.ConfigPath)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CloseIsClean(t *testing.T) {
	w, err := Watch(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, ok := <-w.Events()
	assert.False(t, ok, "event channel must close after Close")
}
