// Package minimize relaxes a system toward a local energy minimum by
// steepest descent with a backtracking trust radius. Only moves that
// lower the energy are kept, so the final energy never exceeds the
// starting one.
package minimize

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ljmartin/timemachine/internal/sim"
)

const (
	defaultMaxIterations = 500
	defaultForceTol      = 10.0 // kJ/mol/nm
	defaultMaxShift      = 0.01 // nm
	stepGrow             = 1.2
	stepShrink           = 0.5
	minShift             = 1e-9 // nm; below this the descent is stuck
)

// Options tune the descent. Zero values select the defaults.
type Options struct {
	MaxIterations int
	// ForceTol is the convergence threshold on the largest force
	// component of any movable atom, in kJ/mol/nm.
	ForceTol float64
	// MaxShift caps how far the fastest atom moves per iteration, in nm.
	MaxShift float64
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
	if o.ForceTol <= 0 {
		o.ForceTol = defaultForceTol
	}
	if o.MaxShift <= 0 {
		o.MaxShift = defaultMaxShift
	}
	return o
}

type Result struct {
	InitialEnergy float64
	FinalEnergy   float64
	Iterations    int
	Converged     bool
	// MaxForce is the largest movable force component at exit, in
	// kJ/mol/nm.
	MaxForce float64
}

// Run relaxes the context's coordinates in place and leaves velocities
// untouched. Atoms marked false in active are held fixed and excluded
// from the convergence test; a nil mask frees every atom. A trial
// whose energy overflows is rejected like any uphill move, but an
// overflow at the starting state is an error.
func Run(ctx context.Context, c *sim.Context, active []bool, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	n := c.NumAtoms()
	if active != nil && len(active) != n {
		return nil, fmt.Errorf("active mask length %d, want %d", len(active), n)
	}

	e, err := c.Energies()
	if err != nil {
		return nil, fmt.Errorf("starting state: %w", err)
	}
	res := &Result{InitialEnergy: e, FinalEnergy: e}

	x := c.Positions()
	step := opts.MaxShift

	for res.Iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		f, err := c.Forces()
		if err != nil {
			return res, err
		}
		maxF := 0.0
		for i := range f {
			if active != nil && !active[i/3] {
				f[i] = 0
				continue
			}
			if a := math.Abs(f[i]); a > maxF {
				maxF = a
			}
		}
		res.MaxForce = maxF
		if maxF <= opts.ForceTol {
			res.Converged = true
			return res, nil
		}
		res.Iterations++

		// Walk downhill, halving the trust radius until the energy
		// drops.
		accepted := false
		for step >= minShift {
			trial := make([]float64, len(x))
			scale := step / maxF
			for i := range x {
				trial[i] = x[i] + scale*f[i]
			}
			if err := c.SetPositions(trial); err != nil {
				return res, err
			}

			eTrial, err := c.Energies()
			switch {
			case errors.Is(err, sim.ErrEnergyOverflow):
				step *= stepShrink
			case err != nil:
				return res, err
			case eTrial < e:
				x, e = trial, eTrial
				res.FinalEnergy = e
				accepted = true
				if step*stepGrow <= opts.MaxShift {
					step *= stepGrow
				}
			default:
				step *= stepShrink
			}
			if accepted {
				break
			}
		}
		if !accepted {
			// Restore the last accepted state before giving up.
			if err := c.SetPositions(x); err != nil {
				return res, err
			}
			return res, nil
		}
	}

	return res, nil
}
