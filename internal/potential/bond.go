package potential

import (
	"math"

	"github.com/ljmartin/timemachine/internal/compute"
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
)

// HarmonicBond is a harmonic spring on atom pairs,
//
//	u = k/2 * (d - b0)^2
//
// with parameters (k, b0) per bond.
type HarmonicBond struct {
	numAtoms int
	idxs     *device.Buffer[int32]
}

// NewHarmonicBond copies bondIdxs, laid out [B,2], into device storage.
func NewHarmonicBond(numAtoms int, bondIdxs []int32) (*HarmonicBond, error) {
	if err := validateIdxs(numAtoms, bondIdxs, 2, "bond"); err != nil {
		return nil, err
	}
	buf, err := device.NewBufferFrom(bondIdxs)
	if err != nil {
		return nil, err
	}
	return &HarmonicBond{numAtoms: numAtoms, idxs: buf}, nil
}

// NumBonds returns the number of bonds in the topology.
func (hb *HarmonicBond) NumBonds() int { return hb.idxs.Len() / 2 }

func (hb *HarmonicBond) Execute(n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	return dispatch(hb, n, p, coords, params, box, duDx, duDp, u, stream)
}

func (hb *HarmonicBond) GradFixedToFloat(duDp []int64, out []float64) error {
	return decodeUniform(duDp, out, 2*hb.NumBonds())
}

func (hb *HarmonicBond) Free() { hb.idxs.Free() }

func (hb *HarmonicBond) validate(n, p int, coords, params, box []float64, duDx, duDp, u []int64) error {
	return checkLayout(n, hb.numAtoms, p, 2*hb.NumBonds(), coords, params, box, duDx, duDp, u)
}

func (hb *HarmonicBond) accumulate(n int, coords, params, box []float64, duDx, duDp, u []int64) {
	idxs := hb.idxs.Data()
	compute.ParallelFor(hb.NumBonds(), minKernelChunk, func(start, end int) {
		for b := start; b < end; b++ {
			i := int(idxs[2*b])
			j := int(idxs[2*b+1])
			k := params[2*b]
			b0 := params[2*b+1]

			dx, dy, dz := deltaR(coords, i, j, box)
			d := math.Sqrt(dx*dx + dy*dy + dz*dz)
			db := d - b0

			if duDx != nil && d > 0 {
				g := k * db / d
				addFixed(duDx, 3*i, g*dx, fixpoint.Force)
				addFixed(duDx, 3*i+1, g*dy, fixpoint.Force)
				addFixed(duDx, 3*i+2, g*dz, fixpoint.Force)
				addFixed(duDx, 3*j, -g*dx, fixpoint.Force)
				addFixed(duDx, 3*j+1, -g*dy, fixpoint.Force)
				addFixed(duDx, 3*j+2, -g*dz, fixpoint.Force)
			}
			if duDp != nil {
				addFixed(duDp, 2*b, 0.5*db*db, fixpoint.Force)
				addFixed(duDp, 2*b+1, -k*db, fixpoint.Force)
			}
			if u != nil {
				addFixed(u, uSlot(u, i), 0.5*k*db*db, fixpoint.Force)
			}
		}
	})
}
