package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferRejectsZeroLength(t *testing.T) {
	_, err := NewBuffer[float64](0)
	require.Error(t, err)
	_, err = NewBuffer[float64](-3)
	require.Error(t, err)
}

func TestBufferCopyRoundTrip(t *testing.T) {
	b, err := NewBuffer[float64](4)
	require.NoError(t, err)
	defer b.Free()

	host := []float64{1.5, -2.0, 0.0, 42.0}
	require.NoError(t, b.CopyFrom(host))

	out := make([]float64, 4)
	require.NoError(t, b.CopyTo(out))
	assert.Equal(t, host, out)
}

func TestBufferCopyLengthMismatch(t *testing.T) {
	b, err := NewBuffer[int64](3)
	require.NoError(t, err)
	defer b.Free()

	assert.Error(t, b.CopyFrom(make([]int64, 2)))
	assert.Error(t, b.CopyTo(make([]int64, 4)))
}

func TestBufferFromHost(t *testing.T) {
	host := []int64{7, 8, 9}
	b, err := NewBufferFrom(host)
	require.NoError(t, err)
	defer b.Free()

	host[0] = 0 // the buffer owns its own storage
	assert.Equal(t, int64(7), b.Data()[0])
}

func TestBufferZero(t *testing.T) {
	b, err := NewBufferFrom([]int64{1, 2, 3})
	require.NoError(t, err)
	defer b.Free()

	b.Zero()
	assert.Equal(t, []int64{0, 0, 0}, b.Data())
}

func TestBufferFreeExactlyOnce(t *testing.T) {
	before := LiveBuffers()
	b, err := NewBuffer[float64](2)
	require.NoError(t, err)
	assert.Equal(t, before+1, LiveBuffers())

	b.Free()
	assert.Equal(t, before, LiveBuffers())

	assert.Panics(t, func() { b.Free() })
	assert.Panics(t, func() { b.Data() })
	assert.Panics(t, func() { _ = b.CopyFrom([]float64{1, 2}) })
}

func TestStreamRunsInSubmissionOrder(t *testing.T) {
	s := NewStream()
	defer s.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		s.Submit(func() { got = append(got, i) })
	}
	s.Synchronize()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestStreamSynchronizeObservesPriorTasks(t *testing.T) {
	s := NewStream()
	defer s.Close()

	total := 0
	for i := 1; i <= 10; i++ {
		i := i
		s.Submit(func() { total += i })
	}
	s.Synchronize()
	assert.Equal(t, 55, total)
}

func TestStreamCloseDrains(t *testing.T) {
	s := NewStream()
	ran := false
	s.Submit(func() { ran = true })
	s.Close()
	assert.True(t, ran)
}
