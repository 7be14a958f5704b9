package runs

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/config"
)

func TestEventWriter_AppendsScalars(t *testing.T) {
	logDir := t.TempDir()
	cfg := config.DefaultConfig() // tensorboard: true

	w, err := NewEventWriter(cfg, logDir)
	require.NoError(t, err)

	require.NoError(t, w.AddScalar("loss", 2.5, 1))
	require.NoError(t, w.AddScalar("val_loss", 3.1, 1))
	require.NoError(t, w.AddScalar("loss", 2.1, 2))
	require.NoError(t, w.Close())

	f, err := os.Open(filepath.Join(logDir, "events.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var events []ScalarEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev ScalarEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 3)
	assert.Equal(t, "loss", events[0].Tag)
	assert.Equal(t, 2.5, events[0].Value)
	assert.Equal(t, 1, events[0].Step)
	assert.Equal(t, 2, events[2].Step)
	assert.Greater(t, events[0].WallTime, 0.0)
}

func TestEventWriter_DisabledIsNoop(t *testing.T) {
	logDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Trainer.Tensorboard = false

	w, err := NewEventWriter(cfg, logDir)
	require.NoError(t, err)
	require.NoError(t, w.AddScalar("loss", 1.0, 1))
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(logDir, "events.jsonl"))
	assert.True(t, os.IsNotExist(err), "no-op writer must not create a stream")
}
