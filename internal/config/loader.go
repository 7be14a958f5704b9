package config

// DataLoaderConfig names the dataset loader class and its arguments.
type DataLoaderConfig struct {
	Type string         `json:"type" yaml:"type"`
	Args DataLoaderArgs `json:"args" yaml:"args"`
}

// DataLoaderArgs holds dataset location and batching parameters.
type DataLoaderArgs struct {
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
	Shuffle   bool   `json:"shuffle" yaml:"shuffle"`

	// Fraction of the training set held out for validation, in [0, 1).
	ValidationSplit float64 `json:"validation_split" yaml:"validation_split"`

	// Number of parallel loader workers. Zero means load on the
	// training process itself.
	NumWorkers int `json:"num_workers" yaml:"num_workers"`
}
