package metrics

import (
	"fmt"
	"math"
	"strings"
)

// Mode says which direction of change in the monitored quantity counts
// as an improvement.
type Mode string

const (
	ModeOff Mode = "off"
	ModeMin Mode = "min"
	ModeMax Mode = "max"
)

// Monitor is a parsed trainer.monitor specification.
type Monitor struct {
	Mode   Mode
	Metric string
}

// ParseMonitor parses a monitor specification: "off", or
// "<min|max> <metric>", e.g. "min val_loss".
func ParseMonitor(spec string) (Monitor, error) {
	fields := strings.Fields(spec)
	switch {
	case len(fields) == 1 && fields[0] == string(ModeOff):
		return Monitor{Mode: ModeOff}, nil
	case len(fields) == 2 && (fields[0] == string(ModeMin) || fields[0] == string(ModeMax)):
		return Monitor{Mode: Mode(fields[0]), Metric: fields[1]}, nil
	default:
		return Monitor{}, fmt.Errorf("invalid monitor spec %q (want \"off\" or \"<min|max> <metric>\")", spec)
	}
}

// Improved reports whether value beats best under the monitor's mode.
// Improvement is strict; NaN never improves.
func (m Monitor) Improved(value, best float64) bool {
	if math.IsNaN(value) {
		return false
	}
	switch m.Mode {
	case ModeMin:
		return value < best
	case ModeMax:
		return value > best
	default:
		return false
	}
}

// worst returns the starting best value for the mode.
func (m Monitor) worst() float64 {
	if m.Mode == ModeMax {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// EarlyStopper tracks the monitored quantity across epochs and decides
// when a run has stopped improving. A patience of zero or below
// disables stopping, matching a trainer config with early_stop 0.
type EarlyStopper struct {
	monitor  Monitor
	patience int

	best      float64
	bestEpoch int
	notImprov int
	epochs    int
}

// NewEarlyStopper creates a stopper for the given monitor and patience.
func NewEarlyStopper(monitor Monitor, patience int) *EarlyStopper {
	return &EarlyStopper{
		monitor:   monitor,
		patience:  patience,
		best:      monitor.worst(),
		bestEpoch: -1,
	}
}

// Observation is the outcome of feeding one epoch's results to the
// stopper.
type Observation struct {
	// Improved is true when this epoch set a new best.
	Improved bool

	// Stop is true when patience is exhausted and training should end.
	Stop bool

	// Missing is true when the monitored metric was absent or NaN in
	// this epoch's results; the epoch counts as not-improved.
	Missing bool
}

// Observe feeds one epoch's averaged results to the stopper.
func (s *EarlyStopper) Observe(results map[string]float64) Observation {
	s.epochs++

	if s.monitor.Mode == ModeOff {
		return Observation{}
	}

	value, ok := results[s.monitor.Metric]
	missing := !ok || math.IsNaN(value)

	var obs Observation
	obs.Missing = missing
	if !missing && s.monitor.Improved(value, s.best) {
		s.best = value
		s.bestEpoch = s.epochs
		s.notImprov = 0
		obs.Improved = true
		return obs
	}

	s.notImprov++
	if s.patience > 0 && s.notImprov >= s.patience {
		obs.Stop = true
	}
	return obs
}

// Best returns the best monitored value seen and the 1-based epoch it
// occurred in. Before any improvement the epoch is -1 and the value is
// the mode's worst.
func (s *EarlyStopper) Best() (value float64, epoch int) {
	return s.best, s.bestEpoch
}
