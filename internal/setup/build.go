package setup

import (
	"fmt"

	"github.com/ljmartin/timemachine/internal/config"
	"github.com/ljmartin/timemachine/internal/integrators"
	"github.com/ljmartin/timemachine/internal/sim"
)

// Simulation bundles a built system with its integrator and context.
type Simulation struct {
	Cfg  *config.Config
	Sys  *System
	Intg integrators.Integrator
	Ctx  *sim.Context
}

// Build validates cfg and assembles the whole stack: system,
// integrator, optional barostat and the context that drives them.
func Build(cfg *config.Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sys, err := NewRegistry().Build(cfg)
	if err != nil {
		return nil, err
	}

	var intg integrators.Integrator
	ic := cfg.Integrator
	switch ic.Kind {
	case "langevin":
		intg, err = integrators.NewLangevin(sys.Masses, ic.Temperature, ic.Dt, ic.Friction, ic.Seed)
	case "verlet":
		intg, err = integrators.NewVelocityVerlet(sys.Masses, ic.Dt)
	default:
		err = fmt.Errorf("unknown integrator kind: %s", ic.Kind)
	}
	if err != nil {
		sys.Free()
		return nil, err
	}

	var barostat *sim.MonteCarloBarostat
	if cfg.Barostat.Enabled {
		// Offset the seed so barostat draws never overlap thermostat
		// noise.
		barostat, err = sim.NewMonteCarloBarostat(len(sys.Masses), cfg.Barostat.Pressure,
			ic.Temperature, sys.Groups, cfg.Barostat.Interval, sys.Bound, ic.Seed+1)
		if err != nil {
			intg.Free()
			sys.Free()
			return nil, err
		}
	}

	ctx, err := sim.NewContext(sys.X0, sys.V0, sys.Box, intg, sys.Bound, barostat)
	if err != nil {
		if barostat != nil {
			barostat.Free()
		}
		intg.Free()
		sys.Free()
		return nil, err
	}

	if len(sys.Frozen) > 0 {
		if err := ctx.SetActive(sys.ActiveMask()); err != nil {
			ctx.Free()
			intg.Free()
			sys.Free()
			return nil, err
		}
	}

	return &Simulation{Cfg: cfg, Sys: sys, Intg: intg, Ctx: ctx}, nil
}

// RunConfig derives the sim-level run parameters from the
// configuration.
func (s *Simulation) RunConfig() sim.RunConfig {
	return sim.RunConfig{
		Dt:            s.Cfg.Integrator.Dt,
		Steps:         s.Cfg.Run.Steps,
		StoreInterval: s.Cfg.Run.StoreInterval,
		Masses:        s.Sys.Masses,
	}
}

func (s *Simulation) Free() {
	s.Ctx.Free()
	s.Intg.Free()
	s.Sys.Free()
}
