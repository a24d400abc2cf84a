package integrators

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ljmartin/timemachine/internal/compute"
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
	"github.com/ljmartin/timemachine/internal/potential"
	"github.com/ljmartin/timemachine/internal/units"
)

// Langevin integrates the underdamped Langevin equation with the
// leapfrog discretization
//
//	v <- ca*v + cb*F(x) + cc*xi
//	x <- x + v*dt
//
// where ca = exp(-friction*dt), cb = dt/m, cc = sqrt(1-ca^2)*sqrt(kT/m)
// and xi is a unit Gaussian drawn per atom per axis. Zero friction and
// zero temperature reduce the update to plain NVE leapfrog.
//
// The generator state advances by exactly 3N draws per step, inside the
// step's stream task, so a fixed seed fixes the whole trajectory.
type Langevin struct {
	numAtoms int
	dt       float64
	ca       float64
	cbs      []float64
	ccs      []float64
	rng      *rand.Rand
	noise    []float64
	duDx     *device.Buffer[int64]
	runner   potential.Runner
}

// NewLangevin builds an integrator for the given per-atom masses, in
// K, ps and amu-compatible units.
func NewLangevin(masses []float64, temperature, dt, friction float64, seed int64) (*Langevin, error) {
	if err := validateMasses(masses); err != nil {
		return nil, err
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt = %v, want > 0", ErrInvalidParameter, dt)
	}
	if temperature < 0 {
		return nil, fmt.Errorf("%w: temperature = %v, want >= 0", ErrInvalidParameter, temperature)
	}
	if friction < 0 {
		return nil, fmt.Errorf("%w: friction = %v, want >= 0", ErrInvalidParameter, friction)
	}

	n := len(masses)
	kT := units.Boltz * temperature
	ca := math.Exp(-friction * dt)
	cbs := make([]float64, n)
	ccs := make([]float64, n)
	for i, m := range masses {
		cbs[i] = dt / m
		ccs[i] = math.Sqrt(1-ca*ca) * math.Sqrt(kT/m)
	}

	duDx, err := device.NewBuffer[int64](3 * n)
	if err != nil {
		return nil, err
	}
	return &Langevin{
		numAtoms: n,
		dt:       dt,
		ca:       ca,
		cbs:      cbs,
		ccs:      ccs,
		rng:      rand.New(rand.NewSource(seed)),
		noise:    make([]float64, 3*n),
		duDx:     duDx,
	}, nil
}

func (lg *Langevin) Initialize(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error {
	return nil
}

func (lg *Langevin) Finalize(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error {
	return nil
}

func (lg *Langevin) StepFwd(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error {
	if err := checkState(lg.numAtoms, x, v, active); err != nil {
		return err
	}
	duDx := lg.duDx.Data()
	if err := lg.runner.Execute(bps, lg.numAtoms, x, box, duDx, nil, nil, stream); err != nil {
		return err
	}
	stream.Submit(func() {
		// noise is drawn serially for every atom, masked or not, so the
		// stream of draws is independent of the mask
		for i := range lg.noise {
			lg.noise[i] = lg.rng.NormFloat64()
		}
		compute.ParallelFor(lg.numAtoms, updateChunk, func(start, end int) {
			for a := start; a < end; a++ {
				if active != nil && !active[a] {
					continue
				}
				for d := 0; d < 3; d++ {
					k := 3*a + d
					force := -fixpoint.Decode(duDx[k], fixpoint.Force)
					v[k] = lg.ca*v[k] + lg.cbs[a]*force + lg.ccs[a]*lg.noise[k]
					x[k] += v[k] * lg.dt
				}
			}
		})
	})
	return nil
}

func (lg *Langevin) Free() { lg.duDx.Free() }
