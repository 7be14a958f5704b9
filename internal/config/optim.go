package config

// OptimizerConfig names the optimization algorithm and its tuning.
type OptimizerConfig struct {
	Type string        `json:"type" yaml:"type"`
	Args OptimizerArgs `json:"args" yaml:"args"`
}

// OptimizerArgs holds the optimizer tuning parameters.
type OptimizerArgs struct {
	// Base learning rate; the scheduler decays from this value.
	LR float64 `json:"lr" yaml:"lr"`

	// L2 regularization coefficient.
	WeightDecay float64 `json:"weight_decay" yaml:"weight_decay"`

	// AMSGrad variant switch. Only meaningful for Adam-family
	// optimizers; ignored by the rest.
	AMSGrad bool `json:"amsgrad" yaml:"amsgrad"`
}

// SchedulerConfig names the learning-rate decay policy and its arguments.
type SchedulerConfig struct {
	Type string        `json:"type" yaml:"type"`
	Args SchedulerArgs `json:"args" yaml:"args"`
}

// SchedulerArgs holds the decay parameters. StepLR multiplies the
// learning rate by Gamma every StepSize epochs; the other policies
// reinterpret the same two knobs (see internal/schedule).
type SchedulerArgs struct {
	StepSize int     `json:"step_size" yaml:"step_size"`
	Gamma    float64 `json:"gamma" yaml:"gamma"`
}
