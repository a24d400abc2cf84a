package config

var Presets = map[string]map[string]*Config{
	"dimer": {
		"equilibrium": {
			System: SystemConfig{
				Kind: "dimer", Atoms: 2, BoxEdge: 3.0, Mass: 12.0,
				BondK: 10000.0, BondLength: 0.15,
				Beta: DefaultBeta, Cutoff: DefaultCutoff,
			},
			Integrator: IntegratorConfig{Kind: "langevin", Dt: 0.0015, Temperature: 300, Friction: 1.0, Seed: DefaultSeed},
			Barostat:   BarostatConfig{Pressure: DefaultPressure, Interval: DefaultBarostatEvery},
			Run:        RunConfig{Steps: 2000, StoreInterval: 50},
		},
		"stretched": {
			System: SystemConfig{
				Kind: "dimer", Atoms: 2, BoxEdge: 3.0, Mass: 12.0,
				BondK: 10000.0, BondLength: 0.15, Displace: 0.08,
				Beta: DefaultBeta, Cutoff: DefaultCutoff,
			},
			Integrator: IntegratorConfig{Kind: "verlet", Dt: 0.001, Temperature: 0, Friction: 0, Seed: DefaultSeed},
			Barostat:   BarostatConfig{Pressure: DefaultPressure, Interval: DefaultBarostatEvery},
			Run:        RunConfig{Steps: 4000, StoreInterval: 20},
		},
	},
	"chain": {
		"small": {
			System: SystemConfig{
				Kind: "chain", Atoms: 16, BoxEdge: 6.0, Mass: 14.0,
				Charge: 0.1, Sigma: 0.34, Epsilon: 0.36,
				BondK: 8000.0, BondLength: 0.153, AngleK: 50.0, TorsionK: 5.0,
				Beta: DefaultBeta, Cutoff: DefaultCutoff,
			},
			Integrator: IntegratorConfig{Kind: "langevin", Dt: 0.0015, Temperature: 300, Friction: 1.0, Seed: DefaultSeed},
			Barostat:   BarostatConfig{Pressure: DefaultPressure, Interval: DefaultBarostatEvery},
			Run:        RunConfig{Steps: 5000, StoreInterval: 100},
		},
		"long": {
			System: SystemConfig{
				Kind: "chain", Atoms: 64, BoxEdge: 12.0, Mass: 14.0,
				Charge: 0.1, Sigma: 0.34, Epsilon: 0.36,
				BondK: 8000.0, BondLength: 0.153, AngleK: 50.0, TorsionK: 5.0,
				Beta: DefaultBeta, Cutoff: DefaultCutoff,
			},
			Integrator: IntegratorConfig{Kind: "langevin", Dt: 0.0015, Temperature: 300, Friction: 1.0, Seed: DefaultSeed},
			Barostat:   BarostatConfig{Pressure: DefaultPressure, Interval: DefaultBarostatEvery},
			Run:        RunConfig{Steps: 10000, StoreInterval: 200},
		},
		"pinned": {
			System: SystemConfig{
				Kind: "chain", Atoms: 16, BoxEdge: 6.0, Mass: 14.0,
				Charge: 0.1, Sigma: 0.34, Epsilon: 0.36,
				BondK: 8000.0, BondLength: 0.153, AngleK: 50.0, TorsionK: 5.0,
				Beta: DefaultBeta, Cutoff: DefaultCutoff,
				Restraint:   RestraintConfig{Enabled: true, K: 100.0, RMin: 0.5, RMax: 2.5},
				FrozenAtoms: []int{0, 15},
			},
			Integrator: IntegratorConfig{Kind: "langevin", Dt: 0.0015, Temperature: 300, Friction: 1.0, Seed: DefaultSeed},
			Barostat:   BarostatConfig{Pressure: DefaultPressure, Interval: DefaultBarostatEvery},
			Run:        RunConfig{Steps: 5000, StoreInterval: 100},
		},
	},
	"lj-fluid": {
		"sparse": {
			System: SystemConfig{
				Kind: "lj-fluid", Atoms: 64, BoxEdge: 8.0, Mass: 39.9,
				Sigma: 0.34, Epsilon: 0.996,
				Beta: DefaultBeta, Cutoff: 1.0,
			},
			Integrator: IntegratorConfig{Kind: "langevin", Dt: 0.002, Temperature: 120, Friction: 1.0, Seed: DefaultSeed},
			Barostat:   BarostatConfig{Pressure: DefaultPressure, Interval: DefaultBarostatEvery},
			Run:        RunConfig{Steps: 5000, StoreInterval: 100},
		},
		"dense": {
			System: SystemConfig{
				Kind: "lj-fluid", Atoms: 125, BoxEdge: 5.0, Mass: 39.9,
				Sigma: 0.34, Epsilon: 0.996,
				Beta: DefaultBeta, Cutoff: DefaultCutoff,
			},
			Integrator: IntegratorConfig{Kind: "langevin", Dt: 0.002, Temperature: 120, Friction: 1.0, Seed: DefaultSeed},
			Barostat:   BarostatConfig{Pressure: DefaultPressure, Interval: DefaultBarostatEvery},
			Run:        RunConfig{Steps: 8000, StoreInterval: 100},
		},
		"npt": {
			System: SystemConfig{
				Kind: "lj-fluid", Atoms: 125, BoxEdge: 5.0, Mass: 39.9,
				Sigma: 0.34, Epsilon: 0.996,
				Beta: DefaultBeta, Cutoff: DefaultCutoff,
			},
			Integrator: IntegratorConfig{Kind: "langevin", Dt: 0.002, Temperature: 120, Friction: 1.0, Seed: DefaultSeed},
			Barostat:   BarostatConfig{Enabled: true, Pressure: 1.0, Interval: 25},
			Run:        RunConfig{Steps: 10000, StoreInterval: 200},
		},
	},
}

func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	return names
}
