package potential

import (
	"github.com/ljmartin/timemachine/internal/device"
)

// BoundPotential pairs a term with the device-resident parameter buffer
// it evaluates against. The buffer stays owned by whoever allocated it;
// binding only fixes the association for repeated evaluation.
type BoundPotential struct {
	Potential Potential
	Params    *device.Buffer[float64]
}

// Bind associates pot with params.
func Bind(pot Potential, params *device.Buffer[float64]) *BoundPotential {
	return &BoundPotential{Potential: pot, Params: params}
}

// Size returns the flattened parameter count the binding supplies.
func (bp *BoundPotential) Size() int { return bp.Params.Len() }

// Execute evaluates the bound term with its own parameters filled in.
func (bp *BoundPotential) Execute(n int, coords, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	return bp.Potential.Execute(n, bp.Size(), coords, bp.Params.Data(), box, duDx, duDp, u, stream)
}
