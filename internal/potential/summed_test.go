package potential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljmartin/timemachine/internal/device"
)

func summedFixture(t *testing.T) (Potential, Potential, []float64, []float64, []float64) {
	t.Helper()
	hb, err := NewHarmonicBond(3, []int32{0, 1, 1, 2})
	require.NoError(t, err)
	t.Cleanup(hb.Free)
	ha, err := NewHarmonicAngle(3, []int32{0, 1, 2})
	require.NoError(t, err)
	t.Cleanup(ha.Free)

	coords := []float64{0.05, 0.1, -0.02, 0.61, 0.08, 0.11, 0.55, 0.72, 0.13}
	bondParams := []float64{420.0, 0.47, 310.0, 0.52}
	angleParams := []float64{151.0, 1.92}
	return hb, ha, coords, bondParams, angleParams
}

func TestSummedPotentialMatchesChildren(t *testing.T) {
	hb, ha, coords, bondParams, angleParams := summedFixture(t)
	box := cubicBox(4)

	sum, err := NewSummedPotential([]Potential{hb, ha}, []int{4, 2}, false)
	require.NoError(t, err)

	params := append(append([]float64(nil), bondParams...), angleParams...)

	stream := device.NewStream()
	defer stream.Close()

	combined := make([]int64, 9)
	require.NoError(t, sum.Execute(3, 6, coords, params, box, combined, nil, nil, stream))
	separate := make([]int64, 9)
	require.NoError(t, hb.Execute(3, 4, coords, bondParams, box, separate, nil, nil, stream))
	require.NoError(t, ha.Execute(3, 2, coords, angleParams, box, separate, nil, nil, stream))
	stream.Synchronize()

	assert.Equal(t, separate, combined)
}

func TestSummedPotentialParallelMatchesSerial(t *testing.T) {
	hb, ha, coords, bondParams, angleParams := summedFixture(t)
	box := cubicBox(4)
	params := append(append([]float64(nil), bondParams...), angleParams...)

	serial, err := NewSummedPotential([]Potential{hb, ha}, []int{4, 2}, false)
	require.NoError(t, err)
	parallel, err := NewSummedPotential([]Potential{hb, ha}, []int{4, 2}, true)
	require.NoError(t, err)

	stream := device.NewStream()
	defer stream.Close()

	duDxSerial := make([]int64, 9)
	duDpSerial := make([]int64, 6)
	uSerial := make([]int64, 1)
	require.NoError(t, serial.Execute(3, 6, coords, params, box, duDxSerial, duDpSerial, uSerial, stream))

	duDxParallel := make([]int64, 9)
	duDpParallel := make([]int64, 6)
	uParallel := make([]int64, 1)
	require.NoError(t, parallel.Execute(3, 6, coords, params, box, duDxParallel, duDpParallel, uParallel, stream))
	stream.Synchronize()

	assert.Equal(t, duDxSerial, duDxParallel)
	assert.Equal(t, duDpSerial, duDpParallel)
	assert.Equal(t, uSerial, uParallel)
}

func TestSummedPotentialGradDecodePerChild(t *testing.T) {
	hb, ha, coords, bondParams, angleParams := summedFixture(t)
	box := cubicBox(4)
	params := append(append([]float64(nil), bondParams...), angleParams...)

	sum, err := NewSummedPotential([]Potential{hb, ha}, []int{4, 2}, false)
	require.NoError(t, err)

	combined := evalDuDp(t, sum, 3, coords, params, box)
	bondGrad := evalDuDp(t, hb, 3, coords, bondParams, box)
	angleGrad := evalDuDp(t, ha, 3, coords, angleParams, box)

	assert.Equal(t, bondGrad, combined[:4])
	assert.Equal(t, angleGrad, combined[4:])
}

func TestSummedPotentialSizeMismatch(t *testing.T) {
	hb, ha, coords, bondParams, angleParams := summedFixture(t)

	_, err := NewSummedPotential([]Potential{hb, ha}, []int{4}, false)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewSummedPotential(nil, nil, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	sum, err := NewSummedPotential([]Potential{hb, ha}, []int{4, 2}, false)
	require.NoError(t, err)

	stream := device.NewStream()
	defer stream.Close()

	short := append(append([]float64(nil), bondParams...), angleParams[:1]...)
	err = sum.Execute(3, 5, coords, short, cubicBox(4), nil, nil, make([]int64, 1), stream)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFanoutCancellation(t *testing.T) {
	idxs := []int32{0, 1}
	scales := []float64{1, 1}

	add, err := NewNonbondedPairList(2, idxs, scales, 2.0, 1.2)
	require.NoError(t, err)
	defer add.Free()
	sub, err := NewNonbondedExclusions(2, idxs, scales, 2.0, 1.2)
	require.NoError(t, err)
	defer sub.Free()

	fan, err := NewFanoutSummedPotential([]Potential{add, sub}, false)
	require.NoError(t, err)

	coords := []float64{0, 0, 0, 0.4, 0, 0}
	params := []float64{
		0.3, 0.3, 0.6, 0,
		-0.2, 0.3, 0.6, 0.05,
	}
	box := cubicBox(6)

	stream := device.NewStream()
	defer stream.Close()

	duDx := make([]int64, 6)
	duDp := make([]int64, 8)
	u := make([]int64, 1)
	require.NoError(t, fan.Execute(2, 8, coords, params, box, duDx, duDp, u, stream))
	stream.Synchronize()

	// the negated child runs the same arithmetic with flipped sign, so
	// every accumulator nets to exactly zero
	for i, v := range duDx {
		assert.Zerof(t, v, "du_dx[%d]", i)
	}
	for i, v := range duDp {
		assert.Zerof(t, v, "du_dp[%d]", i)
	}
	assert.Zero(t, u[0])
}

func TestFanoutParallelMatchesSerial(t *testing.T) {
	idxs := []int32{0, 1, 0, 2}
	scales := []float64{1, 1, 0.5, 0.5}

	add, err := NewNonbondedPairList(3, idxs, scales, 2.0, 1.2)
	require.NoError(t, err)
	defer add.Free()
	sub, err := NewNonbondedExclusions(3, []int32{0, 1}, []float64{0.5, 0.5}, 2.0, 1.2)
	require.NoError(t, err)
	defer sub.Free()

	coords := []float64{0, 0, 0, 0.4, 0.1, 0, 0.1, 0.5, 0.2}
	params := []float64{
		0.3, 0.3, 0.6, 0,
		-0.2, 0.3, 0.6, 0.05,
		-0.1, 0.31, 0.5, 0,
	}
	box := cubicBox(6)

	serial, err := NewFanoutSummedPotential([]Potential{add, sub}, false)
	require.NoError(t, err)
	parallel, err := NewFanoutSummedPotential([]Potential{add, sub}, true)
	require.NoError(t, err)

	stream := device.NewStream()
	defer stream.Close()

	duDxSerial := make([]int64, 9)
	uSerial := make([]int64, 3)
	require.NoError(t, serial.Execute(3, 12, coords, params, box, duDxSerial, nil, uSerial, stream))

	duDxParallel := make([]int64, 9)
	uParallel := make([]int64, 3)
	require.NoError(t, parallel.Execute(3, 12, coords, params, box, duDxParallel, nil, uParallel, stream))
	stream.Synchronize()

	assert.Equal(t, duDxSerial, duDxParallel)
	assert.Equal(t, uSerial, uParallel)
}
