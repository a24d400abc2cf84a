// Package setup turns configurations into runnable simulations: it
// builds particle systems, binds their potentials, and wires the
// integrator, barostat and context together.
package setup

import (
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/potential"
)

// System is a fully parameterized particle system, ready to hand to a
// context. Bound potentials reference the param buffers owned here, so
// the System must outlive every context using it.
type System struct {
	Masses []float64
	X0     []float64
	V0     []float64
	Box    []float64

	// Groups are the rigidly-translated molecule groups used by the
	// barostat; every atom belongs to exactly one.
	Groups [][]int

	Bound []*potential.BoundPotential
	// Names labels each entry of Bound for reporting.
	Names []string

	Frozen []int

	pots    []potential.Potential
	buffers []*device.Buffer[float64]
}

// ActiveMask returns a fresh per-atom mask with the frozen atoms
// cleared.
func (s *System) ActiveMask() []bool {
	mask := make([]bool, len(s.Masses))
	for i := range mask {
		mask[i] = true
	}
	for _, a := range s.Frozen {
		mask[a] = false
	}
	return mask
}

// Free releases the potentials and parameter buffers. Contexts built
// on this system must be freed first.
func (s *System) Free() {
	for _, p := range s.pots {
		p.Free()
	}
	for _, b := range s.buffers {
		b.Free()
	}
}

// bind couples a potential to a freshly allocated parameter buffer and
// records both for Free.
func (s *System) bind(name string, pot potential.Potential, params []float64) error {
	buf, err := device.NewBufferFrom(params)
	if err != nil {
		return err
	}
	s.pots = append(s.pots, pot)
	s.buffers = append(s.buffers, buf)
	s.Bound = append(s.Bound, potential.Bind(pot, buf))
	s.Names = append(s.Names, name)
	return nil
}

// track records a potential composed into another term, so Free still
// reaches it even though it is not bound directly.
func (s *System) track(pot potential.Potential) {
	s.pots = append(s.pots, pot)
}
