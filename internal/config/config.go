// Package config defines the training run configuration record for the
// handwriting-recognition seq2seq stack. The record is a flat JSON object
// persisted alongside every trained checkpoint; it is created once at run
// configuration time and read-only thereafter. Unknown top-level sections
// survive a load/save round trip so that re-emitted copies stay faithful
// to the original file.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all hyperparameters for a single training run.
type Config struct {
	// Run label, used as the directory name under save_dir.
	Name string `json:"name" yaml:"name"`

	// Model architecture dimensions
	Arch ArchConfig `json:"arch" yaml:"arch"`

	// Dataset location and batching
	DataLoader DataLoaderConfig `json:"data_loader" yaml:"data_loader"`

	// Optimization algorithm and tuning
	Optimizer OptimizerConfig `json:"optimizer" yaml:"optimizer"`

	// Loss function identifier
	Loss string `json:"loss" yaml:"loss"`

	// Learning-rate decay policy
	LRScheduler SchedulerConfig `json:"lr_scheduler" yaml:"lr_scheduler"`

	// Run control: epochs, checkpointing cadence, early stopping
	Trainer TrainerConfig `json:"trainer" yaml:"trainer"`

	// Extra retains unknown top-level sections verbatim so that
	// re-serialization preserves every key-value pair of the input.
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

// sections lists the top-level keys owned by Config itself. Anything else
// in the input lands in Extra.
var sections = map[string]struct{}{
	"name":         {},
	"arch":         {},
	"data_loader":  {},
	"optimizer":    {},
	"loss":         {},
	"lr_scheduler": {},
	"trainer":      {},
}

// DefaultConfig returns the reference configuration for the
// handwriting-recognition seq2seq model.
func DefaultConfig() *Config {
	return &Config{
		Name: "hwr_seq2seq",

		Arch: ArchConfig{
			Type: "Seq2SeqHTR",
			Args: ArchArgs{
				EncoderInputDim:     3,
				HiddenDim:           350,
				NumLayers:           2,
				Dropout:             0.2,
				EmbedCharDim:        60,
				NumChars:            78,
				TeacherForcingRatio: 0.5,
			},
		},

		DataLoader: DataLoaderConfig{
			Type: "HandwritingDataLoader",
			Args: DataLoaderArgs{
				DataDir:         "data/",
				BatchSize:       64,
				Shuffle:         true,
				ValidationSplit: 0.1,
				NumWorkers:      2,
			},
		},

		Optimizer: OptimizerConfig{
			Type: "Adam",
			Args: OptimizerArgs{
				LR:          0.001,
				WeightDecay: 0,
				AMSGrad:     true,
			},
		},

		Loss: "nll_loss",

		LRScheduler: SchedulerConfig{
			Type: "StepLR",
			Args: SchedulerArgs{
				StepSize: 50,
				Gamma:    0.1,
			},
		},

		Trainer: TrainerConfig{
			Epochs:      100,
			SaveDir:     "saved/",
			SavePeriod:  1,
			Verbosity:   2,
			Monitor:     "min val_loss",
			EarlyStop:   15,
			Tensorboard: true,
		},
	}
}

// UnmarshalJSON decodes the record over whatever values the receiver
// already holds, so loading on top of DefaultConfig fills gaps with
// defaults. Unknown top-level keys are retained in Extra.
func (c *Config) UnmarshalJSON(data []byte) error {
	type alias Config
	a := alias(*c)
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if _, known := sections[k]; known {
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		a.Extra = raw
	}

	*c = Config(a)
	return nil
}

// MarshalJSON re-emits the record including any retained unknown sections.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	base, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// MarshalYAML carries retained unknown sections into the YAML rendering
// so that switching formats never drops pairs.
func (c Config) MarshalYAML() (interface{}, error) {
	type alias Config
	var node yaml.Node
	if err := node.Encode(alias(c)); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var v interface{}
		if err := json.Unmarshal(c.Extra[k], &v); err != nil {
			return nil, fmt.Errorf("corrupt retained section %q: %w", k, err)
		}
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		if err := valNode.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &keyNode, &valNode)
	}
	return &node, nil
}

// UnmarshalYAML mirrors UnmarshalJSON: decode over the receiver's
// current values and retain unknown top-level keys in Extra.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type alias Config
	a := alias(*c)
	if err := node.Decode(&a); err != nil {
		return err
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if _, known := sections[key]; known {
			continue
		}
		var v interface{}
		if err := node.Content[i+1].Decode(&v); err != nil {
			return err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("unrepresentable section %q: %w", key, err)
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[key] = raw
	}

	*c = Config(a)
	return nil
}

// JSON renders the record as indented UTF-8 JSON, the canonical wire form.
func (c *Config) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append(data, '\n'), nil
}

// Load reads a run configuration from path, layered over defaults.
// JSON is the canonical format; a .yaml/.yml extension loads the YAML
// rendering of the same record. A missing or malformed file is an error:
// the record is a persisted artifact, not an optional dotfile.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	// An empty record is malformed, not a request for defaults. The
	// JSON decoder rejects it on its own; the YAML decoder treats an
	// empty document as a no-op, so check up front for both.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("failed to parse config: %s is empty", path)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the record to path, creating parent directories as needed.
// A .yaml/.yml extension writes the YAML rendering instead of JSON.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
		if err != nil {
			err = fmt.Errorf("failed to marshal config: %w", err)
		}
	default:
		data, err = c.JSON()
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
