package config

import "os"

// applyEnvOverrides applies environment variable overrides. Only the
// deployment-dependent fields are overridable; hyperparameters always
// come from the file so a re-emitted record stays reproducible.
func (c *Config) applyEnvOverrides() {
	if name := os.Getenv("INKWELL_RUN_NAME"); name != "" {
		c.Name = name
	}
	if dir := os.Getenv("INKWELL_DATA_DIR"); dir != "" {
		c.DataLoader.Args.DataDir = dir
	}
	if dir := os.Getenv("INKWELL_SAVE_DIR"); dir != "" {
		c.Trainer.SaveDir = dir
	}
}
