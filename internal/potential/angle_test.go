package potential

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarmonicAngleAtRest(t *testing.T) {
	ha, err := NewHarmonicAngle(3, []int32{0, 1, 2})
	require.NoError(t, err)
	defer ha.Free()

	// right angle at the center atom, theta0 = pi/2
	coords := []float64{0.5, 0, 0, 0, 0, 0, 0, 0.5, 0}
	params := []float64{150.0, math.Pi / 2}
	box := cubicBox(5)

	assert.InDelta(t, 0, evalEnergy(t, ha, 3, coords, params, box), 1e-9)
	for _, g := range evalDuDx(t, ha, 3, coords, params, box) {
		assert.InDelta(t, 0, g, 1e-9)
	}
}

func TestHarmonicAngleBentFromLinear(t *testing.T) {
	ha, err := NewHarmonicAngle(3, []int32{0, 1, 2})
	require.NoError(t, err)
	defer ha.Free()

	// a right angle against theta0 = pi costs ka/2 * (0 - (-1))^2
	coords := []float64{0.5, 0, 0, 0, 0, 0, 0, 0.5, 0}
	params := []float64{150.0, math.Pi}
	box := cubicBox(5)

	assert.InDelta(t, 0.5*150.0, evalEnergy(t, ha, 3, coords, params, box), 1e-9)
}

func TestHarmonicAngleGradientsAgainstFiniteDifference(t *testing.T) {
	ha, err := NewHarmonicAngle(4, []int32{0, 1, 2, 1, 2, 3})
	require.NoError(t, err)
	defer ha.Free()

	coords := []float64{
		0.42, 0.07, -0.11,
		0.0, 0.02, 0.05,
		0.13, 0.45, 0.21,
		0.52, 0.48, 0.55,
	}
	params := []float64{151.0, 1.92, 98.0, 2.11}
	box := cubicBox(4)

	requireGradMatchesEnergy(t, ha, 4, coords, params, box)
	requireParamGradMatchesEnergy(t, ha, 4, coords, params, box)
}
