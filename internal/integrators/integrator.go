package integrators

import (
	"errors"
	"fmt"

	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/potential"
)

var (
	ErrInvalidParameter = errors.New("integrators: invalid parameter")
	ErrInitialized      = errors.New("integrators: already initialized")
	ErrNotInitialized   = errors.New("integrators: not initialized")
	ErrLengthMismatch   = errors.New("integrators: buffer length mismatch")
)

// Integrator advances device-resident positions and velocities using
// forces accumulated by the bound potentials. Initialize and Finalize
// bracket a run of steps for schemes whose stored velocities live off
// the whole-step positions; schemes that do not need bracketing
// implement them as no-ops.
//
// A nil active mask moves every atom; with a mask, inactive atoms keep
// their position and velocity bit for bit. All device work is issued on
// stream in call order.
type Integrator interface {
	Initialize(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error
	StepFwd(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error
	Finalize(bps []*potential.BoundPotential, x, v, box []float64, active []bool, stream *device.Stream) error
	Free()
}

func checkState(numAtoms int, x, v []float64, active []bool) error {
	if len(x) != 3*numAtoms {
		return fmt.Errorf("%w: x has %d values, want %d", ErrLengthMismatch, len(x), 3*numAtoms)
	}
	if len(v) != 3*numAtoms {
		return fmt.Errorf("%w: v has %d values, want %d", ErrLengthMismatch, len(v), 3*numAtoms)
	}
	if active != nil && len(active) != numAtoms {
		return fmt.Errorf("%w: active mask has %d entries, want %d", ErrLengthMismatch, len(active), numAtoms)
	}
	return nil
}

func validateMasses(masses []float64) error {
	if len(masses) == 0 {
		return fmt.Errorf("%w: no masses", ErrInvalidParameter)
	}
	for i, m := range masses {
		if !(m > 0) {
			return fmt.Errorf("%w: mass[%d] = %v, want > 0", ErrInvalidParameter, i, m)
		}
	}
	return nil
}

// Atom updates are trivially cheap; only fan out for big systems.
const updateChunk = 256
