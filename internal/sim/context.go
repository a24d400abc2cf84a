package sim

import (
	"fmt"

	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
	"github.com/ljmartin/timemachine/internal/integrators"
	"github.com/ljmartin/timemachine/internal/potential"
)

// Context owns the mutable state of one simulated system: coordinates,
// velocities and the box live in device buffers, and every update runs
// through a single stream so work stays ordered. A Context is not safe
// for concurrent use.
type Context struct {
	numAtoms int

	x   *device.Buffer[float64]
	v   *device.Buffer[float64]
	box *device.Buffer[float64]

	duDx *device.Buffer[int64]
	u    *device.Buffer[int64]

	active   []bool
	intg     integrators.Integrator
	bps      []*potential.BoundPotential
	barostat *MonteCarloBarostat

	stream *device.Stream
	runner potential.Runner
	steps  int
}

// NewContext copies the host state into fresh device buffers. The
// integrator and bound potentials stay owned by the caller; Free
// releases only what the context allocated. The barostat may be nil.
func NewContext(x0, v0, box []float64, intg integrators.Integrator, bps []*potential.BoundPotential, barostat *MonteCarloBarostat) (*Context, error) {
	if len(x0) == 0 || len(x0)%3 != 0 {
		return nil, fmt.Errorf("%w: coords length %d is not a positive multiple of 3", ErrInvalidParameter, len(x0))
	}
	if len(v0) != len(x0) {
		return nil, fmt.Errorf("%w: velocities length %d, coords length %d", ErrLengthMismatch, len(v0), len(x0))
	}
	if err := potential.ValidateBox(box); err != nil {
		return nil, err
	}
	if intg == nil {
		return nil, fmt.Errorf("%w: nil integrator", ErrInvalidParameter)
	}
	if len(bps) == 0 {
		return nil, fmt.Errorf("%w: no bound potentials", ErrInvalidParameter)
	}
	n := len(x0) / 3
	if barostat != nil && barostat.numAtoms != n {
		return nil, fmt.Errorf("%w: barostat built for %d atoms, system has %d", ErrLengthMismatch, barostat.numAtoms, n)
	}

	xBuf, err := device.NewBufferFrom(x0)
	if err != nil {
		return nil, err
	}
	vBuf, err := device.NewBufferFrom(v0)
	if err != nil {
		xBuf.Free()
		return nil, err
	}
	boxBuf, err := device.NewBufferFrom(box)
	if err != nil {
		xBuf.Free()
		vBuf.Free()
		return nil, err
	}
	duDx, err := device.NewBuffer[int64](len(x0))
	if err != nil {
		xBuf.Free()
		vBuf.Free()
		boxBuf.Free()
		return nil, err
	}
	uBuf, err := device.NewBuffer[int64](n)
	if err != nil {
		xBuf.Free()
		vBuf.Free()
		boxBuf.Free()
		duDx.Free()
		return nil, err
	}

	active := make([]bool, n)
	for i := range active {
		active[i] = true
	}

	return &Context{
		numAtoms: n,
		x:        xBuf,
		v:        vBuf,
		box:      boxBuf,
		duDx:     duDx,
		u:        uBuf,
		active:   active,
		intg:     intg,
		bps:      bps,
		barostat: barostat,
		stream:   device.NewStream(),
	}, nil
}

func (c *Context) NumAtoms() int  { return c.numAtoms }
func (c *Context) StepCount() int { return c.steps }

// Step advances the system by one timestep and, when a barostat is
// attached, lets it propose a volume move afterwards.
func (c *Context) Step() error {
	if err := c.intg.StepFwd(c.bps, c.x.Data(), c.v.Data(), c.box.Data(), c.active, c.stream); err != nil {
		return err
	}
	if c.barostat != nil {
		if err := c.barostat.InplaceMove(c.x.Data(), c.box.Data(), c.stream); err != nil {
			return err
		}
	}
	c.steps++
	return nil
}

// MultipleSteps advances numSteps timesteps, bracketed by the
// integrator's Initialize and Finalize so velocities end on-step. Every
// storeInterval steps the coordinates and box are copied out; a
// non-positive or oversized interval stores only the final frame.
func (c *Context) MultipleSteps(numSteps, storeInterval int) (frames, boxes [][]float64, err error) {
	if numSteps <= 0 {
		return nil, nil, fmt.Errorf("%w: numSteps %d", ErrInvalidParameter, numSteps)
	}
	if storeInterval <= 0 || storeInterval > numSteps {
		storeInterval = numSteps
	}

	if err := c.intg.Initialize(c.bps, c.x.Data(), c.v.Data(), c.box.Data(), c.active, c.stream); err != nil {
		return nil, nil, err
	}
	for i := 1; i <= numSteps; i++ {
		if err := c.Step(); err != nil {
			return nil, nil, err
		}
		if i%storeInterval != 0 {
			continue
		}
		c.stream.Synchronize()
		frame := make([]float64, 3*c.numAtoms)
		copy(frame, c.x.Data())
		boxOut := make([]float64, 9)
		copy(boxOut, c.box.Data())
		if err := potential.ValidateBox(boxOut); err != nil {
			return nil, nil, fmt.Errorf("stored frame at step %d: %w", c.steps, err)
		}
		frames = append(frames, frame)
		boxes = append(boxes, boxOut)
	}
	if err := c.intg.Finalize(c.bps, c.x.Data(), c.v.Data(), c.box.Data(), c.active, c.stream); err != nil {
		return nil, nil, err
	}
	c.stream.Synchronize()
	return frames, boxes, nil
}

// Energies evaluates the bound potentials at the current state and
// reduces the per-atom energy slots. Saturated accumulators surface as
// ErrEnergyOverflow instead of a garbage float.
func (c *Context) Energies() (float64, error) {
	u := c.u.Data()
	if err := c.runner.Execute(c.bps, c.numAtoms, c.x.Data(), c.box.Data(), nil, nil, u, c.stream); err != nil {
		return 0, err
	}
	c.stream.Synchronize()
	e := fixpoint.SumEnergy(u)
	if fixpoint.Overflowed(e) {
		return 0, ErrEnergyOverflow
	}
	return fixpoint.EnergyToFloat(e), nil
}

// TermEnergies evaluates each bound potential on its own and returns
// the per-term energies in binding order.
func (c *Context) TermEnergies() ([]float64, error) {
	u := c.u.Data()
	out := make([]float64, len(c.bps))
	for i := range c.bps {
		if err := c.runner.Execute(c.bps[i:i+1], c.numAtoms, c.x.Data(), c.box.Data(), nil, nil, u, c.stream); err != nil {
			return nil, err
		}
		c.stream.Synchronize()
		e := fixpoint.SumEnergy(u)
		if fixpoint.Overflowed(e) {
			return nil, fmt.Errorf("term %d: %w", i, ErrEnergyOverflow)
		}
		out[i] = fixpoint.EnergyToFloat(e)
	}
	return out, nil
}

// Forces evaluates the bound potentials and returns the negated
// coordinate gradient in kJ/mol/nm.
func (c *Context) Forces() ([]float64, error) {
	duDx := c.duDx.Data()
	if err := c.runner.Execute(c.bps, c.numAtoms, c.x.Data(), c.box.Data(), duDx, nil, nil, c.stream); err != nil {
		return nil, err
	}
	c.stream.Synchronize()
	f := make([]float64, len(duDx))
	for i, v := range duDx {
		f[i] = -fixpoint.Decode(v, fixpoint.Force)
	}
	return f, nil
}

// Positions returns a host copy of the current coordinates.
func (c *Context) Positions() []float64 {
	c.stream.Synchronize()
	out := make([]float64, 3*c.numAtoms)
	_ = c.x.CopyTo(out)
	return out
}

// Velocities returns a host copy of the current velocities.
func (c *Context) Velocities() []float64 {
	c.stream.Synchronize()
	out := make([]float64, 3*c.numAtoms)
	_ = c.v.CopyTo(out)
	return out
}

// Box returns a host copy of the current box.
func (c *Context) Box() []float64 {
	c.stream.Synchronize()
	out := make([]float64, 9)
	_ = c.box.CopyTo(out)
	return out
}

func (c *Context) SetPositions(x []float64) error {
	if len(x) != 3*c.numAtoms {
		return fmt.Errorf("%w: coords length %d, want %d", ErrLengthMismatch, len(x), 3*c.numAtoms)
	}
	c.stream.Synchronize()
	return c.x.CopyFrom(x)
}

func (c *Context) SetVelocities(v []float64) error {
	if len(v) != 3*c.numAtoms {
		return fmt.Errorf("%w: velocities length %d, want %d", ErrLengthMismatch, len(v), 3*c.numAtoms)
	}
	c.stream.Synchronize()
	return c.v.CopyFrom(v)
}

// SetActive replaces the per-atom mask. Inactive atoms keep their
// position and velocity but still contribute to energies and forces.
func (c *Context) SetActive(mask []bool) error {
	if len(mask) != c.numAtoms {
		return fmt.Errorf("%w: mask length %d, want %d", ErrLengthMismatch, len(mask), c.numAtoms)
	}
	c.stream.Synchronize()
	copy(c.active, mask)
	return nil
}

// Free releases the context's device buffers and closes its stream.
// The integrator and bound potentials are the caller's to free.
func (c *Context) Free() {
	c.stream.Synchronize()
	c.x.Free()
	c.v.Free()
	c.box.Free()
	c.duDx.Free()
	c.u.Free()
	if c.barostat != nil {
		c.barostat.Free()
	}
	c.stream.Close()
}
