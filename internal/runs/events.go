package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inkwell/internal/config"
)

// ScalarEvent is one line of a run's events.jsonl stream: a tagged
// scalar at a training step, the Go stand-in for a tensorboard scalar.
type ScalarEvent struct {
	WallTime float64 `json:"wall_time"`
	Step     int     `json:"step"`
	Tag      string  `json:"tag"`
	Value    float64 `json:"value"`
}

// EventWriter appends scalar events to a run's log directory.
type EventWriter interface {
	AddScalar(tag string, value float64, step int) error
	Close() error
}

// NewEventWriter returns the writer cfg asks for: a JSONL stream in
// logDir when trainer.tensorboard is set, otherwise a no-op.
func NewEventWriter(cfg *config.Config, logDir string) (EventWriter, error) {
	if !cfg.Trainer.Tensorboard {
		return nopWriter{}, nil
	}
	return newJSONLWriter(logDir)
}

type jsonlWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
	now func() time.Time
}

func newJSONLWriter(logDir string) (*jsonlWriter, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "events.jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	return &jsonlWriter{f: f, enc: json.NewEncoder(f), now: time.Now}, nil
}

func (w *jsonlWriter) AddScalar(tag string, value float64, step int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ev := ScalarEvent{
		WallTime: float64(w.now().UnixNano()) / 1e9,
		Step:     step,
		Tag:      tag,
		Value:    value,
	}
	if err := w.enc.Encode(ev); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

type nopWriter struct{}

func (nopWriter) AddScalar(string, float64, int) error { return nil }
func (nopWriter) Close() error                         { return nil }
