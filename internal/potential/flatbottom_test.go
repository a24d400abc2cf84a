package potential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatBottomBondInsideWindow(t *testing.T) {
	fb, err := NewFlatBottomBond(2, []int32{0, 1})
	require.NoError(t, err)
	defer fb.Free()

	coords := []float64{0, 0, 0, 0.5, 0, 0}
	params := []float64{200.0, 0.3, 0.8}
	box := cubicBox(5)

	assert.Zero(t, evalEnergy(t, fb, 2, coords, params, box))
	for _, g := range evalDuDx(t, fb, 2, coords, params, box) {
		assert.Zero(t, g)
	}
	for _, g := range evalDuDp(t, fb, 2, coords, params, box) {
		assert.Zero(t, g)
	}
}

func TestFlatBottomBondBeyondRmax(t *testing.T) {
	fb, err := NewFlatBottomBond(2, []int32{0, 1})
	require.NoError(t, err)
	defer fb.Free()

	// 0.25 past the upper wall
	coords := []float64{0, 0, 0, 0.75, 0, 0}
	params := []float64{200.0, 0.2, 0.5}
	box := cubicBox(5)

	assert.InDelta(t, 0.5*200*0.25*0.25, evalEnergy(t, fb, 2, coords, params, box), 1e-9)

	grad := evalDuDx(t, fb, 2, coords, params, box)
	assert.InDelta(t, -200*0.25, grad[0], 1e-8)
	assert.InDelta(t, 200*0.25, grad[3], 1e-8)
}

func TestFlatBottomBondBelowRmin(t *testing.T) {
	fb, err := NewFlatBottomBond(2, []int32{0, 1})
	require.NoError(t, err)
	defer fb.Free()

	// 0.15 inside the lower wall pushes the pair apart
	coords := []float64{0, 0, 0, 0.35, 0, 0}
	params := []float64{200.0, 0.5, 0.9}
	box := cubicBox(5)

	assert.InDelta(t, 0.5*200*0.15*0.15, evalEnergy(t, fb, 2, coords, params, box), 1e-9)

	grad := evalDuDx(t, fb, 2, coords, params, box)
	// du/dx0 = k*delta*dx/d with delta < 0: gradient points outward
	assert.InDelta(t, 200*0.15, grad[0], 1e-8)
	assert.InDelta(t, -200*0.15, grad[3], 1e-8)
}

func TestFlatBottomBondGradientsAgainstFiniteDifference(t *testing.T) {
	fb, err := NewFlatBottomBond(3, []int32{0, 1, 0, 2})
	require.NoError(t, err)
	defer fb.Free()

	coords := []float64{0, 0.01, 0.02, 0.93, 0.05, 0.11, 0.08, 0.31, 0.04}
	params := []float64{180.0, 0.2, 0.6, 150.0, 0.45, 0.7}
	box := cubicBox(6)

	requireGradMatchesEnergy(t, fb, 3, coords, params, box)
	requireParamGradMatchesEnergy(t, fb, 3, coords, params, box)
}
