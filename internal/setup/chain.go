package setup

import (
	"fmt"
	"math"

	"github.com/ljmartin/timemachine/internal/config"
	"github.com/ljmartin/timemachine/internal/potential"
)

// buildChain lays a bonded polymer out as a helix whose pitch keeps
// every bond exactly at its rest length, so the bonded terms start
// strain-free. Angle and torsion rest values are measured off the
// built geometry. Nonbonded interactions run as a dense pair list over
// all pairs, with bonded neighbors cancelled by a negated exclusion
// term over the same parameter table: 1-2 and 1-3 pairs vanish
// entirely, 1-4 pairs keep half their strength.
func buildChain(cfg *config.Config) (*System, error) {
	sc := cfg.System
	n := sc.Atoms
	if n < 2 {
		return nil, fmt.Errorf("chain needs at least 2 atoms, got %d", n)
	}
	if sc.BondK <= 0 || sc.BondLength <= 0 {
		return nil, fmt.Errorf("chain needs positive bond_k and bond_length, got %f and %f", sc.BondK, sc.BondLength)
	}

	// Helix with radius r and turn angle alpha per atom; the rise is
	// chosen so consecutive atoms sit exactly bond_length apart.
	const alpha = 1.8
	r := sc.BondLength / 4
	rise := math.Sqrt(sc.BondLength*sc.BondLength - 2*r*r*(1-math.Cos(alpha)))
	if float64(n)*rise > sc.BoxEdge {
		return nil, fmt.Errorf("chain of %d atoms does not fit a %.2f nm box", n, sc.BoxEdge)
	}

	c := sc.BoxEdge / 2
	x0 := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		x0[3*i] = c + (float64(i)-float64(n-1)/2)*rise
		x0[3*i+1] = c + r*math.Cos(float64(i)*alpha)
		x0[3*i+2] = c + r*math.Sin(float64(i)*alpha)
	}

	masses := make([]float64, n)
	for i := range masses {
		masses[i] = sc.Mass
	}
	group := make([]int, n)
	for i := range group {
		group[i] = i
	}

	sys := &System{
		Masses: masses,
		X0:     x0,
		V0:     make([]float64, 3*n),
		Box:    cubicBox(sc.BoxEdge),
		Groups: [][]int{group},
		Frozen: sc.FrozenAtoms,
	}

	bondIdxs := make([]int32, 0, 2*(n-1))
	bondParams := make([]float64, 0, 2*(n-1))
	for i := 0; i < n-1; i++ {
		bondIdxs = append(bondIdxs, int32(i), int32(i+1))
		bondParams = append(bondParams, sc.BondK, sc.BondLength)
	}
	hb, err := potential.NewHarmonicBond(n, bondIdxs)
	if err != nil {
		return nil, err
	}
	if err := sys.bind("bonds", hb, bondParams); err != nil {
		hb.Free()
		sys.Free()
		return nil, err
	}

	if sc.AngleK > 0 && n >= 3 {
		t0 := angleAt(x0, 0, 1, 2)
		angleIdxs := make([]int32, 0, 3*(n-2))
		angleParams := make([]float64, 0, 2*(n-2))
		for i := 0; i < n-2; i++ {
			angleIdxs = append(angleIdxs, int32(i), int32(i+1), int32(i+2))
			angleParams = append(angleParams, sc.AngleK, t0)
		}
		ha, err := potential.NewHarmonicAngle(n, angleIdxs)
		if err != nil {
			sys.Free()
			return nil, err
		}
		if err := sys.bind("angles", ha, angleParams); err != nil {
			ha.Free()
			sys.Free()
			return nil, err
		}
	}

	if sc.TorsionK > 0 && n >= 4 {
		// Phase puts the energy minimum at the helix's own dihedral.
		phase := dihedralAt(x0, 0, 1, 2, 3) - math.Pi
		torsionIdxs := make([]int32, 0, 4*(n-3))
		torsionParams := make([]float64, 0, 3*(n-3))
		for i := 0; i < n-3; i++ {
			torsionIdxs = append(torsionIdxs, int32(i), int32(i+1), int32(i+2), int32(i+3))
			torsionParams = append(torsionParams, sc.TorsionK, phase, 1)
		}
		pt, err := potential.NewPeriodicTorsion(n, torsionIdxs)
		if err != nil {
			sys.Free()
			return nil, err
		}
		if err := sys.bind("torsions", pt, torsionParams); err != nil {
			pt.Free()
			sys.Free()
			return nil, err
		}
	}

	if err := bindChainNonbonded(sys, sc, n); err != nil {
		sys.Free()
		return nil, err
	}

	if sc.Restraint.Enabled {
		fb, err := potential.NewFlatBottomBond(n, []int32{0, int32(n - 1)})
		if err != nil {
			sys.Free()
			return nil, err
		}
		if err := sys.bind("restraint", fb, []float64{sc.Restraint.K, sc.Restraint.RMin, sc.Restraint.RMax}); err != nil {
			fb.Free()
			sys.Free()
			return nil, err
		}
	}

	return sys, nil
}

// bindChainNonbonded fans a dense all-pairs term and its negated
// exclusions out over one shared [N,4] parameter table.
func bindChainNonbonded(sys *System, sc config.SystemConfig, n int) error {
	var denseIdxs []int32
	var denseScales []float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			denseIdxs = append(denseIdxs, int32(i), int32(j))
			denseScales = append(denseScales, 1, 1)
		}
	}

	var exclIdxs []int32
	var exclScales []float64
	for i := 0; i < n; i++ {
		for sep := 1; sep <= 3 && i+sep < n; sep++ {
			exclIdxs = append(exclIdxs, int32(i), int32(i+sep))
			if sep == 3 {
				exclScales = append(exclScales, 0.5, 0.5)
			} else {
				exclScales = append(exclScales, 1, 1)
			}
		}
	}

	dense, err := potential.NewNonbondedPairList(n, denseIdxs, denseScales, sc.Beta, sc.Cutoff)
	if err != nil {
		return err
	}
	excl, err := potential.NewNonbondedExclusions(n, exclIdxs, exclScales, sc.Beta, sc.Cutoff)
	if err != nil {
		dense.Free()
		return err
	}
	fanout, err := potential.NewFanoutSummedPotential([]potential.Potential{dense, excl}, true)
	if err != nil {
		dense.Free()
		excl.Free()
		return err
	}
	sys.track(dense)
	sys.track(excl)

	table := make([]float64, 4*n)
	for i := 0; i < n; i++ {
		q := sc.Charge
		if i%2 == 1 {
			q = -q
		}
		table[4*i] = q
		table[4*i+1] = sc.Sigma
		table[4*i+2] = sc.Epsilon
	}
	if err := sys.bind("nonbonded", fanout, table); err != nil {
		fanout.Free()
		return err
	}
	return nil
}

// angleAt measures the angle at center j in radians.
func angleAt(x []float64, i, j, k int) float64 {
	ax, ay, az := x[3*i]-x[3*j], x[3*i+1]-x[3*j+1], x[3*i+2]-x[3*j+2]
	bx, by, bz := x[3*k]-x[3*j], x[3*k+1]-x[3*j+1], x[3*k+2]-x[3*j+2]
	cosT := (ax*bx + ay*by + az*bz) /
		(math.Sqrt(ax*ax+ay*ay+az*az) * math.Sqrt(bx*bx+by*by+bz*bz))
	return math.Acos(math.Max(-1, math.Min(1, cosT)))
}

// dihedralAt measures the signed dihedral over atoms i-j-k-l.
func dihedralAt(x []float64, i, j, k, l int) float64 {
	b1x, b1y, b1z := x[3*j]-x[3*i], x[3*j+1]-x[3*i+1], x[3*j+2]-x[3*i+2]
	b2x, b2y, b2z := x[3*k]-x[3*j], x[3*k+1]-x[3*j+1], x[3*k+2]-x[3*j+2]
	b3x, b3y, b3z := x[3*l]-x[3*k], x[3*l+1]-x[3*k+1], x[3*l+2]-x[3*k+2]

	n1x, n1y, n1z := b1y*b2z-b1z*b2y, b1z*b2x-b1x*b2z, b1x*b2y-b1y*b2x
	n2x, n2y, n2z := b2y*b3z-b2z*b3y, b2z*b3x-b2x*b3z, b2x*b3y-b2y*b3x

	cx, cy, cz := n1y*n2z-n1z*n2y, n1z*n2x-n1x*n2z, n1x*n2y-n1y*n2x
	n2len := math.Sqrt(b2x*b2x + b2y*b2y + b2z*b2z)
	y := (cx*b2x + cy*b2y + cz*b2z) / n2len
	return math.Atan2(y, n1x*n2x+n1y*n2y+n1z*n2z)
}
