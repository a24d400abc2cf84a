package potential

import (
	"math"

	"github.com/ljmartin/timemachine/internal/compute"
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
)

// PeriodicTorsion applies a cosine series term to the dihedral angle of
// each (i, j, k, l) quad,
//
//	u = kt * (1 + cos(period*phi - phase))
//
// with parameters (kt, phase, period) per torsion, phase in radians.
type PeriodicTorsion struct {
	numAtoms int
	idxs     *device.Buffer[int32]
}

// NewPeriodicTorsion copies torsionIdxs, laid out [T,4] along the
// dihedral axis, into device storage.
func NewPeriodicTorsion(numAtoms int, torsionIdxs []int32) (*PeriodicTorsion, error) {
	if err := validateIdxs(numAtoms, torsionIdxs, 4, "torsion"); err != nil {
		return nil, err
	}
	buf, err := device.NewBufferFrom(torsionIdxs)
	if err != nil {
		return nil, err
	}
	return &PeriodicTorsion{numAtoms: numAtoms, idxs: buf}, nil
}

// NumTorsions returns the number of torsions in the topology.
func (pt *PeriodicTorsion) NumTorsions() int { return pt.idxs.Len() / 4 }

func (pt *PeriodicTorsion) Execute(n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	return dispatch(pt, n, p, coords, params, box, duDx, duDp, u, stream)
}

func (pt *PeriodicTorsion) GradFixedToFloat(duDp []int64, out []float64) error {
	return decodeUniform(duDp, out, 3*pt.NumTorsions())
}

func (pt *PeriodicTorsion) Free() { pt.idxs.Free() }

func (pt *PeriodicTorsion) validate(n, p int, coords, params, box []float64, duDx, duDp, u []int64) error {
	return checkLayout(n, pt.numAtoms, p, 3*pt.NumTorsions(), coords, params, box, duDx, duDp, u)
}

func (pt *PeriodicTorsion) accumulate(n int, coords, params, box []float64, duDx, duDp, u []int64) {
	idxs := pt.idxs.Data()
	compute.ParallelFor(pt.NumTorsions(), minKernelChunk, func(start, end int) {
		for t := start; t < end; t++ {
			i := int(idxs[4*t])
			j := int(idxs[4*t+1])
			k := int(idxs[4*t+2])
			l := int(idxs[4*t+3])
			kt := params[3*t]
			phase := params[3*t+1]
			period := params[3*t+2]

			b1x, b1y, b1z := deltaR(coords, j, i, box)
			b2x, b2y, b2z := deltaR(coords, k, j, box)
			b3x, b3y, b3z := deltaR(coords, l, k, box)

			n1x, n1y, n1z := cross3(b1x, b1y, b1z, b2x, b2y, b2z)
			n2x, n2y, n2z := cross3(b2x, b2y, b2z, b3x, b3y, b3z)
			n1sq := dot3(n1x, n1y, n1z, n1x, n1y, n1z)
			n2sq := dot3(n2x, n2y, n2z, n2x, n2y, n2z)
			b2sq := dot3(b2x, b2y, b2z, b2x, b2y, b2z)
			if n1sq == 0 || n2sq == 0 || b2sq == 0 {
				// collinear quad, dihedral undefined
				continue
			}
			nb2 := math.Sqrt(b2sq)

			mx, my, mz := cross3(n1x, n1y, n1z, n2x, n2y, n2z)
			phi := math.Atan2(dot3(mx, my, mz, b2x, b2y, b2z)/nb2, dot3(n1x, n1y, n1z, n2x, n2y, n2z))
			arg := period*phi - phase

			if duDx != nil {
				// d phi/d r for the outer atoms, inner atoms by lever rule
				g := -kt * period * math.Sin(arg)
				fi := -nb2 / n1sq
				fl := nb2 / n2sq
				s := dot3(b1x, b1y, b1z, b2x, b2y, b2z) / b2sq
				w := dot3(b3x, b3y, b3z, b2x, b2y, b2z) / b2sq

				dix, diy, diz := fi*n1x, fi*n1y, fi*n1z
				dlx, dly, dlz := fl*n2x, fl*n2y, fl*n2z
				djx := (s-1)*dix - w*dlx
				djy := (s-1)*diy - w*dly
				djz := (s-1)*diz - w*dlz
				dkx := (w-1)*dlx - s*dix
				dky := (w-1)*dly - s*diy
				dkz := (w-1)*dlz - s*diz

				addFixed(duDx, 3*i, g*dix, fixpoint.Force)
				addFixed(duDx, 3*i+1, g*diy, fixpoint.Force)
				addFixed(duDx, 3*i+2, g*diz, fixpoint.Force)
				addFixed(duDx, 3*j, g*djx, fixpoint.Force)
				addFixed(duDx, 3*j+1, g*djy, fixpoint.Force)
				addFixed(duDx, 3*j+2, g*djz, fixpoint.Force)
				addFixed(duDx, 3*k, g*dkx, fixpoint.Force)
				addFixed(duDx, 3*k+1, g*dky, fixpoint.Force)
				addFixed(duDx, 3*k+2, g*dkz, fixpoint.Force)
				addFixed(duDx, 3*l, g*dlx, fixpoint.Force)
				addFixed(duDx, 3*l+1, g*dly, fixpoint.Force)
				addFixed(duDx, 3*l+2, g*dlz, fixpoint.Force)
			}
			if duDp != nil {
				addFixed(duDp, 3*t, 1+math.Cos(arg), fixpoint.Force)
				addFixed(duDp, 3*t+1, kt*math.Sin(arg), fixpoint.Force)
				addFixed(duDp, 3*t+2, -kt*phi*math.Sin(arg), fixpoint.Force)
			}
			if u != nil {
				addFixed(u, uSlot(u, i), kt*(1+math.Cos(arg)), fixpoint.Force)
			}
		}
	})
}
