package potential

import (
	"math"

	"github.com/ljmartin/timemachine/internal/compute"
	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
)

// HarmonicAngle restrains the angle at the center atom of each (i, j, k)
// triple. The energy is expressed in the cosine of the angle,
//
//	u = ka/2 * (cos t - cos t0)^2
//
// which keeps the gradient finite at 0 and pi. Parameters are (ka, t0)
// per angle, t0 in radians.
type HarmonicAngle struct {
	numAtoms int
	idxs     *device.Buffer[int32]
}

// NewHarmonicAngle copies angleIdxs, laid out [A,3] with the center atom
// second, into device storage.
func NewHarmonicAngle(numAtoms int, angleIdxs []int32) (*HarmonicAngle, error) {
	if err := validateIdxs(numAtoms, angleIdxs, 3, "angle"); err != nil {
		return nil, err
	}
	buf, err := device.NewBufferFrom(angleIdxs)
	if err != nil {
		return nil, err
	}
	return &HarmonicAngle{numAtoms: numAtoms, idxs: buf}, nil
}

// NumAngles returns the number of angles in the topology.
func (ha *HarmonicAngle) NumAngles() int { return ha.idxs.Len() / 3 }

func (ha *HarmonicAngle) Execute(n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	return dispatch(ha, n, p, coords, params, box, duDx, duDp, u, stream)
}

func (ha *HarmonicAngle) GradFixedToFloat(duDp []int64, out []float64) error {
	return decodeUniform(duDp, out, 2*ha.NumAngles())
}

func (ha *HarmonicAngle) Free() { ha.idxs.Free() }

func (ha *HarmonicAngle) validate(n, p int, coords, params, box []float64, duDx, duDp, u []int64) error {
	return checkLayout(n, ha.numAtoms, p, 2*ha.NumAngles(), coords, params, box, duDx, duDp, u)
}

func (ha *HarmonicAngle) accumulate(n int, coords, params, box []float64, duDx, duDp, u []int64) {
	idxs := ha.idxs.Data()
	compute.ParallelFor(ha.NumAngles(), minKernelChunk, func(start, end int) {
		for a := start; a < end; a++ {
			i := int(idxs[3*a])
			j := int(idxs[3*a+1])
			k := int(idxs[3*a+2])
			ka := params[2*a]
			t0 := params[2*a+1]

			// legs from the center atom, each imaged independently
			jix, jiy, jiz := deltaR(coords, i, j, box)
			jkx, jky, jkz := deltaR(coords, k, j, box)

			nji := math.Sqrt(dot3(jix, jiy, jiz, jix, jiy, jiz))
			njk := math.Sqrt(dot3(jkx, jky, jkz, jkx, jky, jkz))
			if nji == 0 || njk == 0 {
				continue
			}
			inv := 1.0 / (nji * njk)
			cosT := dot3(jix, jiy, jiz, jkx, jky, jkz) * inv
			delta := cosT - math.Cos(t0)

			if duDx != nil {
				g := ka * delta
				// d cos/d r_i and d cos/d r_k; the center picks up the
				// negated sum by translation invariance.
				cix := jkx*inv - cosT*jix/(nji*nji)
				ciy := jky*inv - cosT*jiy/(nji*nji)
				ciz := jkz*inv - cosT*jiz/(nji*nji)
				ckx := jix*inv - cosT*jkx/(njk*njk)
				cky := jiy*inv - cosT*jky/(njk*njk)
				ckz := jiz*inv - cosT*jkz/(njk*njk)

				addFixed(duDx, 3*i, g*cix, fixpoint.Force)
				addFixed(duDx, 3*i+1, g*ciy, fixpoint.Force)
				addFixed(duDx, 3*i+2, g*ciz, fixpoint.Force)
				addFixed(duDx, 3*k, g*ckx, fixpoint.Force)
				addFixed(duDx, 3*k+1, g*cky, fixpoint.Force)
				addFixed(duDx, 3*k+2, g*ckz, fixpoint.Force)
				addFixed(duDx, 3*j, -g*(cix+ckx), fixpoint.Force)
				addFixed(duDx, 3*j+1, -g*(ciy+cky), fixpoint.Force)
				addFixed(duDx, 3*j+2, -g*(ciz+ckz), fixpoint.Force)
			}
			if duDp != nil {
				addFixed(duDp, 2*a, 0.5*delta*delta, fixpoint.Force)
				addFixed(duDp, 2*a+1, ka*delta*math.Sin(t0), fixpoint.Force)
			}
			if u != nil {
				addFixed(u, uSlot(u, j), 0.5*ka*delta*delta, fixpoint.Force)
			}
		}
	})
}
