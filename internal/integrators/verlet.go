package integrators

import (
	"fmt"

	"github.com/ljmartin/timemachine/internal/compute"
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
	"github.com/ljmartin/timemachine/internal/potential"
)

// VelocityVerlet integrates NVE dynamics in kick-drift-kick form.
// Initialize applies the leading half kick, each StepFwd drifts and then
// applies a full kick at the new positions, and Finalize removes the
// trailing half kick so stored velocities land back on whole steps.
// A bracketed run is time reversible: negating the velocities and
// stepping again retraces the trajectory.
type VelocityVerlet struct {
	numAtoms    int
	dt          float64
	cbs         []float64
	initialized bool
	duDx        *device.Buffer[int64]
	runner      potential.Runner
}

// NewVelocityVerlet builds an integrator for the given per-atom masses.
func NewVelocityVerlet(masses []float64, dt float64) (*VelocityVerlet, error) {
	if err := validateMasses(masses); err != nil {
		return nil, err
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt = %v, want > 0", ErrInvalidParameter, dt)
	}
	n := len(masses)
	cbs := make([]float64, n)
	for i, m := range masses {
		cbs[i] = dt / m
	}
	duDx, err := device.NewBuffer[int64](3 * n)
	if err != nil {
		return nil, err
	}
	return &VelocityVerlet{
		numAtoms: n,
		dt:       dt,
		cbs:      cbs,
		duDx:     duDx,
	}, nil
}

// Initialize applies the leading half kick. Initializing twice without
// an intervening Finalize is an error.
func (vv *VelocityVerlet) Initialize(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error {
	if vv.initialized {
		return ErrInitialized
	}
	if err := vv.kick(bps, x, v, box, active, stream, 0.5); err != nil {
		return err
	}
	vv.initialized = true
	return nil
}

// Finalize removes the trailing half kick and re-arms Initialize.
func (vv *VelocityVerlet) Finalize(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error {
	if !vv.initialized {
		return ErrNotInitialized
	}
	if err := vv.kick(bps, x, v, box, active, stream, -0.5); err != nil {
		return err
	}
	vv.initialized = false
	return nil
}

func (vv *VelocityVerlet) StepFwd(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error {
	if !vv.initialized {
		return ErrNotInitialized
	}
	if err := checkState(vv.numAtoms, x, v, active); err != nil {
		return err
	}
	stream.Submit(func() {
		compute.ParallelFor(vv.numAtoms, updateChunk, func(start, end int) {
			for a := start; a < end; a++ {
				if active != nil && !active[a] {
					continue
				}
				x[3*a] += vv.dt * v[3*a]
				x[3*a+1] += vv.dt * v[3*a+1]
				x[3*a+2] += vv.dt * v[3*a+2]
			}
		})
	})
	return vv.kick(bps, x, v, box, active, stream, 1.0)
}

// kick accumulates forces at the current positions and scales the
// velocity update by frac of a full kick.
func (vv *VelocityVerlet) kick(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream, frac float64) error {
	if err := checkState(vv.numAtoms, x, v, active); err != nil {
		return err
	}
	duDx := vv.duDx.Data()
	if err := vv.runner.Execute(bps, vv.numAtoms, x, box, duDx, nil, nil, stream); err != nil {
		return err
	}
	stream.Submit(func() {
		compute.ParallelFor(vv.numAtoms, updateChunk, func(start, end int) {
			for a := start; a < end; a++ {
				if active != nil && !active[a] {
					continue
				}
				cb := frac * vv.cbs[a]
				for d := 0; d < 3; d++ {
					k := 3*a + d
					force := -fixpoint.Decode(duDx[k], fixpoint.Force)
					v[k] += cb * force
				}
			}
		})
	})
	return nil
}

func (vv *VelocityVerlet) Free() { vv.duDx.Free() }
