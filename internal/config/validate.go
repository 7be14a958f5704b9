package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"inkwell/internal/metrics"
)

// ValidOptimizers lists the supported optimizer types.
var ValidOptimizers = []string{"Adam", "AdamW", "SGD", "RMSprop"}

// ValidSchedulers lists the supported learning-rate scheduler types.
var ValidSchedulers = []string{"StepLR", "ExponentialLR", "CosineAnnealingLR"}

// ValidLosses lists the supported loss function identifiers.
var ValidLosses = []string{"nll_loss", "cross_entropy_loss", "mse_loss", "ctc_loss"}

// Validate checks every invariant of the record and reports all
// violations at once, not just the first.
func (c *Config) Validate() error {
	var errs []error

	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Name == "" {
		fail("name must not be empty")
	}

	// Architecture
	a := c.Arch.Args
	if a.EncoderInputDim <= 0 {
		fail("arch.args.encoder_input_dim must be positive, got %d", a.EncoderInputDim)
	}
	if a.HiddenDim <= 0 {
		fail("arch.args.hidden_dim must be positive, got %d", a.HiddenDim)
	}
	if a.NumLayers <= 0 {
		fail("arch.args.num_layers must be positive, got %d", a.NumLayers)
	}
	if a.Dropout < 0 || a.Dropout > 1 {
		fail("arch.args.dropout must be in [0,1], got %g", a.Dropout)
	}
	if a.EmbedCharDim <= 0 {
		fail("arch.args.embed_char_dim must be positive, got %d", a.EmbedCharDim)
	}
	if a.NumChars <= 0 {
		fail("arch.args.num_chars must be positive, got %d", a.NumChars)
	}
	if a.TeacherForcingRatio < 0 || a.TeacherForcingRatio > 1 {
		fail("arch.args.teacher_forcing_ratio must be in [0,1], got %g", a.TeacherForcingRatio)
	}

	// Data loader
	d := c.DataLoader.Args
	if d.DataDir == "" {
		fail("data_loader.args.data_dir must not be empty")
	}
	if d.BatchSize <= 0 {
		fail("data_loader.args.batch_size must be positive, got %d", d.BatchSize)
	}
	if d.ValidationSplit < 0 || d.ValidationSplit >= 1 {
		fail("data_loader.args.validation_split must be in [0,1), got %g", d.ValidationSplit)
	}
	if d.NumWorkers < 0 {
		fail("data_loader.args.num_workers must be non-negative, got %d", d.NumWorkers)
	}

	// Optimizer
	if !slices.Contains(ValidOptimizers, c.Optimizer.Type) {
		fail("invalid optimizer type: %q (valid: %v)", c.Optimizer.Type, ValidOptimizers)
	}
	if c.Optimizer.Args.LR <= 0 {
		fail("optimizer.args.lr must be positive, got %g", c.Optimizer.Args.LR)
	}
	if c.Optimizer.Args.WeightDecay < 0 {
		fail("optimizer.args.weight_decay must be non-negative, got %g", c.Optimizer.Args.WeightDecay)
	}

	// Loss
	if !slices.Contains(ValidLosses, c.Loss) {
		fail("invalid loss: %q (valid: %v)", c.Loss, ValidLosses)
	}

	// Scheduler
	if !slices.Contains(ValidSchedulers, c.LRScheduler.Type) {
		fail("invalid lr_scheduler type: %q (valid: %v)", c.LRScheduler.Type, ValidSchedulers)
	}
	if c.LRScheduler.Args.StepSize <= 0 {
		fail("lr_scheduler.args.step_size must be positive, got %d", c.LRScheduler.Args.StepSize)
	}
	if c.LRScheduler.Args.Gamma <= 0 || c.LRScheduler.Args.Gamma > 1 {
		fail("lr_scheduler.args.gamma must be in (0,1], got %g", c.LRScheduler.Args.Gamma)
	}

	// Trainer policy
	t := c.Trainer
	if t.Epochs <= 0 {
		fail("trainer.epochs must be positive, got %d", t.Epochs)
	}
	if t.SaveDir == "" {
		fail("trainer.save_dir must not be empty")
	}
	if t.SavePeriod <= 0 {
		fail("trainer.save_period must be positive, got %d", t.SavePeriod)
	}
	if t.Verbosity < 0 || t.Verbosity > 2 {
		fail("trainer.verbosity must be 0, 1 or 2, got %d", t.Verbosity)
	}
	if _, err := metrics.ParseMonitor(t.Monitor); err != nil {
		fail("trainer.monitor: %v", err)
	}
	if t.EarlyStop < 0 {
		fail("trainer.early_stop must be non-negative, got %d", t.EarlyStop)
	}

	return errors.Join(errs...)
}

// ValidateStrict runs Validate and additionally rejects unknown
// top-level sections instead of silently carrying them.
func (c *Config) ValidateStrict() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}

	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		errs = append(errs, fmt.Errorf("unknown section: %q", k))
	}

	return errors.Join(errs...)
}
