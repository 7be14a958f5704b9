// Package metrics implements the run bookkeeping the trainer policy
// fields parameterize: per-epoch metric aggregation, the monitor
// grammar ("min val_loss"), and the early-stopping counter.
package metrics

import (
	"fmt"
	"sort"
)

// Tracker accumulates running averages for a fixed set of tracked
// quantities. The key set is fixed at construction; updating an
// untracked key is an error so typos in metric names surface early.
type Tracker struct {
	totals map[string]float64
	counts map[string]int
	keys   []string
}

// NewTracker creates a tracker for the given keys.
func NewTracker(keys ...string) *Tracker {
	t := &Tracker{
		totals: make(map[string]float64, len(keys)),
		counts: make(map[string]int, len(keys)),
		keys:   append([]string(nil), keys...),
	}
	t.Reset()
	return t
}

// Reset clears all accumulated values, keeping the key set.
func (t *Tracker) Reset() {
	for _, k := range t.keys {
		t.totals[k] = 0
		t.counts[k] = 0
	}
}

// Update records n observations of value for key. n defaults to a
// single observation when zero or negative input would make no sense,
// so callers pass 1 for a single value.
func (t *Tracker) Update(key string, value float64, n int) error {
	if _, ok := t.totals[key]; !ok {
		return fmt.Errorf("untracked metric: %q", key)
	}
	if n <= 0 {
		return fmt.Errorf("update count must be positive, got %d", n)
	}
	t.totals[key] += value * float64(n)
	t.counts[key] += n
	return nil
}

// Avg returns the running average for key, zero if nothing was recorded.
func (t *Tracker) Avg(key string) float64 {
	if t.counts[key] == 0 {
		return 0
	}
	return t.totals[key] / float64(t.counts[key])
}

// Count returns the number of observations recorded for key.
func (t *Tracker) Count(key string) int {
	return t.counts[key]
}

// Keys returns the tracked key set, sorted.
func (t *Tracker) Keys() []string {
	keys := append([]string(nil), t.keys...)
	sort.Strings(keys)
	return keys
}

// Result returns the average of every tracked quantity.
func (t *Tracker) Result() map[string]float64 {
	out := make(map[string]float64, len(t.keys))
	for _, k := range t.keys {
		out[k] = t.Avg(k)
	}
	return out
}
