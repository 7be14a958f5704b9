package config

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "hwr_seq2seq" {
		t.Errorf("expected Name=hwr_seq2seq, got %s", cfg.Name)
	}
	if cfg.Arch.Args.NumChars != 78 {
		t.Errorf("expected num_chars=78, got %d", cfg.Arch.Args.NumChars)
	}
	if cfg.Arch.Args.HiddenDim != 350 {
		t.Errorf("expected hidden_dim=350, got %d", cfg.Arch.Args.HiddenDim)
	}
	if cfg.Optimizer.Type != "Adam" {
		t.Errorf("expected optimizer.type=Adam, got %s", cfg.Optimizer.Type)
	}
	if cfg.Trainer.EarlyStop != 15 {
		t.Errorf("expected early_stop=15, got %d", cfg.Trainer.EarlyStop)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	cfg := DefaultConfig()
	cfg.Name = "hwr_experiment"
	cfg.Arch.Args.HiddenDim = 512
	cfg.Trainer.Monitor = "max val_acc"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Name != "hwr_experiment" {
		t.Errorf("expected Name=hwr_experiment, got %s", loaded.Name)
	}
	if loaded.Arch.Args.HiddenDim != 512 {
		t.Errorf("expected hidden_dim=512, got %d", loaded.Arch.Args.HiddenDim)
	}
	if loaded.Trainer.Monitor != "max val_acc" {
		t.Errorf("expected monitor=max val_acc, got %s", loaded.Trainer.Monitor)
	}
}

func TestConfig_SaveLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Optimizer.Args.LR = 0.01

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Optimizer.Args.LR != 0.01 {
		t.Errorf("expected lr=0.01, got %g", loaded.Optimizer.Args.LR)
	}
	if loaded.Arch.Args.NumChars != 78 {
		t.Errorf("expected num_chars=78 from defaults, got %d", loaded.Arch.Args.NumChars)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("INKWELL_RUN_NAME", "override_run")
	t.Setenv("INKWELL_DATA_DIR", "/mnt/strokes")
	t.Setenv("INKWELL_SAVE_DIR", "/mnt/runs")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Name != "override_run" {
		t.Errorf("expected Name=override_run, got %s", cfg.Name)
	}
	if cfg.DataLoader.Args.DataDir != "/mnt/strokes" {
		t.Errorf("expected data_dir=/mnt/strokes, got %s", cfg.DataLoader.Args.DataDir)
	}
	if cfg.Trainer.SaveDir != "/mnt/runs" {
		t.Errorf("expected save_dir=/mnt/runs, got %s", cfg.Trainer.SaveDir)
	}
}

func TestTrainerConfig_LogLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		got := TrainerConfig{Verbosity: tt.verbosity}.LogLevel()
		if got != tt.want {
			t.Errorf("verbosity %d: expected %v, got %v", tt.verbosity, tt.want, got)
		}
	}

	if lvl := DefaultConfig().Trainer.LogLevel(); lvl != zapcore.DebugLevel {
		t.Errorf("default verbosity 2 must map to debug, got %v", lvl)
	}
}

func TestConfig_LoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfig_PartialLoadKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "partial.json")
	writeFile(t, path, `{"name": "tiny", "trainer": {"epochs": 3}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "tiny" {
		t.Errorf("expected Name=tiny, got %s", cfg.Name)
	}
	if cfg.Trainer.Epochs != 3 {
		t.Errorf("expected epochs=3, got %d", cfg.Trainer.Epochs)
	}
	// Unset fields keep their defaults.
	if cfg.Trainer.EarlyStop != 15 {
		t.Errorf("expected early_stop=15 from defaults, got %d", cfg.Trainer.EarlyStop)
	}
	if cfg.Optimizer.Type != "Adam" {
		t.Errorf("expected optimizer.type=Adam from defaults, got %s", cfg.Optimizer.Type)
	}
}
