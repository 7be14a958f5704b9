package config

import "go.uber.org/zap/zapcore"

// TrainerConfig holds run-control parameters: how long to train, where
// and how often to checkpoint, and when to give up.
type TrainerConfig struct {
	Epochs int `json:"epochs" yaml:"epochs"`

	// Root directory for run artifacts. Checkpoints land under
	// models/<name>/<run-id>/, event streams under log/<name>/<run-id>/.
	SaveDir string `json:"save_dir" yaml:"save_dir"`

	// Checkpoint every SavePeriod epochs.
	SavePeriod int `json:"save_period" yaml:"save_period"`

	// Console verbosity: 0 warnings only, 1 info, 2 debug.
	Verbosity int `json:"verbosity" yaml:"verbosity"`

	// Monitor names the tracked quantity that decides the best
	// checkpoint: "off", or "<min|max> <metric>", e.g. "min val_loss".
	Monitor string `json:"monitor" yaml:"monitor"`

	// Stop after this many consecutive epochs without improvement in
	// the monitored quantity. Zero or negative disables early stopping.
	EarlyStop int `json:"early_stop" yaml:"early_stop"`

	// Write scalar event streams for external visualization.
	Tensorboard bool `json:"tensorboard" yaml:"tensorboard"`
}

// LogLevel maps the record's verbosity to a log level: 0 warnings
// only, 1 info, anything higher debug.
func (t TrainerConfig) LogLevel() zapcore.Level {
	switch t.Verbosity {
	case 0:
		return zapcore.WarnLevel
	case 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
