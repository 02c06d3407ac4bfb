package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.System != "chain" {
		t.Errorf("expected system chain, got %s", cfg.System)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if cfg.Report.Interval <= 0 {
		t.Error("report interval should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative steps", func(c *Config) { c.Steps = -1 }},
		{"zero particles", func(c *Config) { c.Particles = 0 }},
		{"zero interval", func(c *Config) { c.Report.Interval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("system: lj-fluid\nparticles: 64\nsteps: 500\nreport:\n  interval: 25\n  observables: [total]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.System != "lj-fluid" {
		t.Errorf("expected lj-fluid, got %s", cfg.System)
	}
	if cfg.Particles != 64 || cfg.Steps != 500 {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.Report.Interval != 25 {
		t.Errorf("expected interval 25, got %d", cfg.Report.Interval)
	}
	// unset fields keep defaults
	if cfg.Dt != DefaultDt {
		t.Errorf("expected default dt, got %f", cfg.Dt)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("dt: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pulling")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if !cfg.Pulling.Enabled {
		t.Error("pulling preset should enable the pulling force")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) == 0 {
		t.Error("expected presets")
	}
	for _, name := range presets {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("listed preset %q not retrievable", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
}
