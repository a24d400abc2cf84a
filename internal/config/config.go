package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt            = 0.0015
	DefaultTemperature   = 300.0
	DefaultFriction      = 1.0
	DefaultSeed          = 2024
	DefaultSteps         = 2000
	DefaultStoreInterval = 50
	DefaultPressure      = 1.0
	DefaultBarostatEvery = 25
	DefaultBeta          = 2.0
	DefaultCutoff        = 1.2
)

type Config struct {
	System     SystemConfig     `yaml:"system"`
	Integrator IntegratorConfig `yaml:"integrator"`
	Barostat   BarostatConfig   `yaml:"barostat"`
	Run        RunConfig        `yaml:"run"`
}

// SystemConfig describes the particle system to build. Lengths are in
// nm, energies in kJ/mol, masses in g/mol and charges in units of e.
type SystemConfig struct {
	Kind        string          `yaml:"kind"`
	Atoms       int             `yaml:"atoms"`
	BoxEdge     float64         `yaml:"box_edge"`
	Mass        float64         `yaml:"mass"`
	Charge      float64         `yaml:"charge"`
	Sigma       float64         `yaml:"sigma"`
	Epsilon     float64         `yaml:"epsilon"`
	BondK       float64         `yaml:"bond_k"`
	BondLength  float64         `yaml:"bond_length"`
	Displace    float64         `yaml:"displace"`
	AngleK      float64         `yaml:"angle_k"`
	TorsionK    float64         `yaml:"torsion_k"`
	Beta        float64         `yaml:"beta"`
	Cutoff      float64         `yaml:"cutoff"`
	Restraint   RestraintConfig `yaml:"restraint"`
	FrozenAtoms []int           `yaml:"frozen_atoms"`
}

// RestraintConfig adds a flat-bottom restraint between the first and
// last atoms when enabled.
type RestraintConfig struct {
	Enabled bool    `yaml:"enabled"`
	K       float64 `yaml:"k"`
	RMin    float64 `yaml:"r_min"`
	RMax    float64 `yaml:"r_max"`
}

type IntegratorConfig struct {
	Kind        string  `yaml:"kind"`
	Dt          float64 `yaml:"dt"`
	Temperature float64 `yaml:"temperature"`
	Friction    float64 `yaml:"friction"`
	Seed        int64   `yaml:"seed"`
}

type BarostatConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Pressure float64 `yaml:"pressure"`
	Interval int     `yaml:"interval"`
}

type RunConfig struct {
	Steps         int `yaml:"steps"`
	StoreInterval int `yaml:"store_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			Kind:       "dimer",
			Atoms:      2,
			BoxEdge:    3.0,
			Mass:       12.0,
			BondK:      10000.0,
			BondLength: 0.15,
			Beta:       DefaultBeta,
			Cutoff:     DefaultCutoff,
		},
		Integrator: IntegratorConfig{
			Kind:        "langevin",
			Dt:          DefaultDt,
			Temperature: DefaultTemperature,
			Friction:    DefaultFriction,
			Seed:        DefaultSeed,
		},
		Barostat: BarostatConfig{
			Pressure: DefaultPressure,
			Interval: DefaultBarostatEvery,
		},
		Run: RunConfig{
			Steps:         DefaultSteps,
			StoreInterval: DefaultStoreInterval,
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
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the system builders cannot turn into
// a runnable simulation.
func (c *Config) Validate() error {
	switch c.System.Kind {
	case "dimer", "chain", "lj-fluid":
	default:
		return fmt.Errorf("unknown system kind %q", c.System.Kind)
	}
	switch c.Integrator.Kind {
	case "langevin", "verlet":
	default:
		return fmt.Errorf("unknown integrator kind %q", c.Integrator.Kind)
	}
	if c.System.Atoms < 2 {
		return fmt.Errorf("system needs at least 2 atoms, got %d", c.System.Atoms)
	}
	if c.System.BoxEdge <= 0 {
		return fmt.Errorf("box edge must be positive, got %f", c.System.BoxEdge)
	}
	if c.System.Mass <= 0 {
		return fmt.Errorf("mass must be positive, got %f", c.System.Mass)
	}
	if c.Integrator.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Integrator.Dt)
	}
	if c.Integrator.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %f", c.Integrator.Temperature)
	}
	if c.Integrator.Friction < 0 {
		return fmt.Errorf("friction must be non-negative, got %f", c.Integrator.Friction)
	}
	if c.Run.Steps < 1 {
		return fmt.Errorf("run needs at least 1 step, got %d", c.Run.Steps)
	}
	if c.Barostat.Enabled {
		if c.Barostat.Pressure <= 0 {
			return fmt.Errorf("barostat pressure must be positive, got %f", c.Barostat.Pressure)
		}
		if c.Barostat.Interval < 1 {
			return fmt.Errorf("barostat interval must be at least 1, got %d", c.Barostat.Interval)
		}
	}
	for _, a := range c.System.FrozenAtoms {
		if a < 0 || a >= c.System.Atoms {
			return fmt.Errorf("frozen atom %d out of range [0,%d)", a, c.System.Atoms)
		}
	}
	return nil
}
