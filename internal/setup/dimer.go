package setup

import (
	"fmt"

	"github.com/ljmartin/timemachine/internal/config"
	"github.com/ljmartin/timemachine/internal/potential"
)

// buildDimer places two bonded atoms at the box center, separated
// along z by the rest length plus any configured displacement.
func buildDimer(cfg *config.Config) (*System, error) {
	sc := cfg.System
	if sc.Atoms != 2 {
		return nil, fmt.Errorf("dimer needs exactly 2 atoms, got %d", sc.Atoms)
	}
	if sc.BondK <= 0 || sc.BondLength <= 0 {
		return nil, fmt.Errorf("dimer needs positive bond_k and bond_length, got %f and %f", sc.BondK, sc.BondLength)
	}

	c := sc.BoxEdge / 2
	d := sc.BondLength + sc.Displace

	sys := &System{
		Masses: []float64{sc.Mass, sc.Mass},
		X0:     []float64{c, c, c - d/2, c, c, c + d/2},
		V0:     make([]float64, 6),
		Box:    cubicBox(sc.BoxEdge),
		Groups: [][]int{{0, 1}},
		Frozen: sc.FrozenAtoms,
	}

	hb, err := potential.NewHarmonicBond(2, []int32{0, 1})
	if err != nil {
		return nil, err
	}
	if err := sys.bind("bond", hb, []float64{sc.BondK, sc.BondLength}); err != nil {
		hb.Free()
		return nil, err
	}

	return sys, nil
}

func cubicBox(edge float64) []float64 {
	return []float64{edge, 0, 0, 0, edge, 0, 0, 0, edge}
}
