package potential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicTorsionTransMinimum(t *testing.T) {
	pt, err := NewPeriodicTorsion(4, []int32{0, 1, 2, 3})
	require.NoError(t, err)
	defer pt.Free()

	// planar trans quad: phi = pi, so u = kt*(1+cos(pi)) = 0
	coords := []float64{
		0.5, 0, 0,
		0, 0, 0,
		0, 0, 0.5,
		-0.5, 0, 0.5,
	}
	params := []float64{25.0, 0, 1}
	box := cubicBox(5)

	assert.Zero(t, evalEnergy(t, pt, 4, coords, params, box))
}

func TestPeriodicTorsionPerpendicular(t *testing.T) {
	pt, err := NewPeriodicTorsion(4, []int32{0, 1, 2, 3})
	require.NoError(t, err)
	defer pt.Free()

	// phi = pi/2 with period 1, phase 0: u = kt*(1+cos(pi/2)) = kt
	coords := []float64{
		0.5, 0, 0,
		0, 0, 0,
		0, 0, 0.5,
		0, 0.5, 0.5,
	}
	params := []float64{25.0, 0, 1}
	box := cubicBox(5)

	assert.InDelta(t, 25.0, evalEnergy(t, pt, 4, coords, params, box), 1e-9)

	// doubling the period puts the same geometry at a maximum slope's
	// zero: u = kt*(1+cos(pi)) = 0
	params = []float64{25.0, 0, 2}
	assert.InDelta(t, 0, evalEnergy(t, pt, 4, coords, params, box), 1e-9)
}

func TestPeriodicTorsionGradientsAgainstFiniteDifference(t *testing.T) {
	pt, err := NewPeriodicTorsion(4, []int32{0, 1, 2, 3})
	require.NoError(t, err)
	defer pt.Free()

	coords := []float64{
		0.4, 0.05, 0,
		0, 0, 0,
		0.05, 0.1, 0.5,
		0.5, 0.4, 0.6,
	}
	params := []float64{25.0, 0.3, 2}
	box := cubicBox(4)

	requireGradMatchesEnergy(t, pt, 4, coords, params, box)
	requireParamGradMatchesEnergy(t, pt, 4, coords, params, box)
}
