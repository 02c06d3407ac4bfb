package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.002
	DefaultSteps       = 10000
	DefaultParticles   = 16
	DefaultBondK       = 100.0
	DefaultSpacing     = 1.0
	DefaultBoxEdge     = 6.0
	DefaultInterval    = 100
	DefaultWebAddr     = "localhost:5000"
	DefaultMinimizeTol = 10.0
)

type Config struct {
	System    string  `yaml:"system"`
	Particles int     `yaml:"particles"`
	Dt        float64 `yaml:"dt"`
	Steps     int64   `yaml:"steps"`
	BoxEdge   float64 `yaml:"box_edge"`
	BondK     float64 `yaml:"bond_k"`
	Spacing   float64 `yaml:"spacing"`

	Minimize    bool    `yaml:"minimize"`
	MinimizeTol float64 `yaml:"minimize_tol"`

	Pulling PullingConfig `yaml:"pulling"`
	Report  ReportConfig  `yaml:"report"`
}

type PullingConfig struct {
	Enabled bool    `yaml:"enabled"`
	K       float64 `yaml:"k"`
	R0      float64 `yaml:"r0"`
}

type ReportConfig struct {
	Interval    int64    `yaml:"interval"`
	Observables []string `yaml:"observables"`
	File        string   `yaml:"file"`
	WebAddr     string   `yaml:"web_addr"`
}

func DefaultConfig() *Config {
	return &Config{
		System:      "chain",
		Particles:   DefaultParticles,
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
		BoxEdge:     DefaultBoxEdge,
		BondK:       DefaultBondK,
		Spacing:     DefaultSpacing,
		MinimizeTol: DefaultMinimizeTol,
		Pulling: PullingConfig{
			K:  1000.0,
			R0: 0.0,
		},
		Report: ReportConfig{
			Interval:    DefaultInterval,
			Observables: []string{"potential", "kinetic", "total", "temperature"},
			WebAddr:     DefaultWebAddr,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Steps)
	}
	if c.Particles <= 0 {
		return fmt.Errorf("particles must be positive, got %d", c.Particles)
	}
	if c.Report.Interval <= 0 {
		return fmt.Errorf("report interval must be positive, got %d", c.Report.Interval)
	}
	return nil
}
