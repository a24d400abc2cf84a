package setup

import (
	"fmt"

	"github.com/ljmartin/timemachine/internal/config"
	"github.com/ljmartin/timemachine/internal/potential"
)

// buildLJFluid places atoms on a cubic lattice filling the box, with a
// dense pair list over every pair. Each atom is its own barostat group.
func buildLJFluid(cfg *config.Config) (*System, error) {
	sc := cfg.System
	n := sc.Atoms
	if n < 2 {
		return nil, fmt.Errorf("lj-fluid needs at least 2 atoms, got %d", n)
	}
	if sc.Sigma <= 0 || sc.Epsilon <= 0 {
		return nil, fmt.Errorf("lj-fluid needs positive sigma and epsilon, got %f and %f", sc.Sigma, sc.Epsilon)
	}

	m := 1
	for m*m*m < n {
		m++
	}
	spacing := sc.BoxEdge / float64(m)
	if spacing < sc.Sigma {
		return nil, fmt.Errorf("%d atoms in a %.2f nm box puts lattice neighbors inside sigma", n, sc.BoxEdge)
	}

	x0 := make([]float64, 0, 3*n)
	for i := 0; i < m && len(x0) < 3*n; i++ {
		for j := 0; j < m && len(x0) < 3*n; j++ {
			for k := 0; k < m && len(x0) < 3*n; k++ {
				x0 = append(x0,
					(float64(i)+0.5)*spacing,
					(float64(j)+0.5)*spacing,
					(float64(k)+0.5)*spacing)
			}
		}
	}

	masses := make([]float64, n)
	groups := make([][]int, n)
	for i := range masses {
		masses[i] = sc.Mass
		groups[i] = []int{i}
	}

	sys := &System{
		Masses: masses,
		X0:     x0,
		V0:     make([]float64, 3*n),
		Box:    cubicBox(sc.BoxEdge),
		Groups: groups,
		Frozen: sc.FrozenAtoms,
	}

	pairIdxs := make([]int32, 0, n*(n-1))
	pairScales := make([]float64, 0, n*(n-1))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairIdxs = append(pairIdxs, int32(i), int32(j))
			pairScales = append(pairScales, 1, 1)
		}
	}
	nb, err := potential.NewNonbondedPairList(n, pairIdxs, pairScales, sc.Beta, sc.Cutoff)
	if err != nil {
		return nil, err
	}

	table := make([]float64, 4*n)
	for i := 0; i < n; i++ {
		table[4*i] = sc.Charge
		table[4*i+1] = sc.Sigma
		table[4*i+2] = sc.Epsilon
	}
	if err := sys.bind("nonbonded", nb, table); err != nil {
		nb.Free()
		return nil, err
	}

	return sys, nil
}
