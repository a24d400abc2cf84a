package potential

import (
	"math"

	"github.com/ljmartin/timemachine/internal/compute"
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
)

// FlatBottomBond restrains atom pairs to a distance window. Inside
// [rmin, rmax] the term contributes nothing; outside it grows
// harmonically in the overshoot,
//
//	u = k/2 * (max(0, d-rmax) + min(0, d-rmin))^2
//
// with parameters (k, rmin, rmax) per bond.
type FlatBottomBond struct {
	numAtoms int
	idxs     *device.Buffer[int32]
}

// NewFlatBottomBond copies bondIdxs, laid out [B,2], into device storage.
func NewFlatBottomBond(numAtoms int, bondIdxs []int32) (*FlatBottomBond, error) {
	if err := validateIdxs(numAtoms, bondIdxs, 2, "flat-bottom bond"); err != nil {
		return nil, err
	}
	buf, err := device.NewBufferFrom(bondIdxs)
	if err != nil {
		return nil, err
	}
	return &FlatBottomBond{numAtoms: numAtoms, idxs: buf}, nil
}

// NumBonds returns the number of restrained pairs.
func (fb *FlatBottomBond) NumBonds() int { return fb.idxs.Len() / 2 }

func (fb *FlatBottomBond) Execute(n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	return dispatch(fb, n, p, coords, params, box, duDx, duDp, u, stream)
}

func (fb *FlatBottomBond) GradFixedToFloat(duDp []int64, out []float64) error {
	return decodeUniform(duDp, out, 3*fb.NumBonds())
}

func (fb *FlatBottomBond) Free() { fb.idxs.Free() }

func (fb *FlatBottomBond) validate(n, p int, coords, params, box []float64, duDx, duDp, u []int64) error {
	return checkLayout(n, fb.numAtoms, p, 3*fb.NumBonds(), coords, params, box, duDx, duDp, u)
}

func (fb *FlatBottomBond) accumulate(n int, coords, params, box []float64, duDx, duDp, u []int64) {
	idxs := fb.idxs.Data()
	compute.ParallelFor(fb.NumBonds(), minKernelChunk, func(start, end int) {
		for b := start; b < end; b++ {
			i := int(idxs[2*b])
			j := int(idxs[2*b+1])
			k := params[3*b]
			rmin := params[3*b+1]
			rmax := params[3*b+2]

			dx, dy, dz := deltaR(coords, i, j, box)
			d := math.Sqrt(dx*dx + dy*dy + dz*dz)
			delta := math.Max(0, d-rmax) + math.Min(0, d-rmin)
			if delta == 0 {
				continue
			}

			if duDx != nil && d > 0 {
				g := k * delta / d
				addFixed(duDx, 3*i, g*dx, fixpoint.Force)
				addFixed(duDx, 3*i+1, g*dy, fixpoint.Force)
				addFixed(duDx, 3*i+2, g*dz, fixpoint.Force)
				addFixed(duDx, 3*j, -g*dx, fixpoint.Force)
				addFixed(duDx, 3*j+1, -g*dy, fixpoint.Force)
				addFixed(duDx, 3*j+2, -g*dz, fixpoint.Force)
			}
			if duDp != nil {
				addFixed(duDp, 3*b, 0.5*delta*delta, fixpoint.Force)
				addFixed(duDp, 3*b+1, -k*math.Min(0, d-rmin), fixpoint.Force)
				addFixed(duDp, 3*b+2, -k*math.Max(0, d-rmax), fixpoint.Force)
			}
			if u != nil {
				addFixed(u, uSlot(u, i), 0.5*k*delta*delta, fixpoint.Force)
			}
		}
	})
}
