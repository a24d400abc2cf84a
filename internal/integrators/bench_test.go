package integrators

import (
	"testing"

	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/potential"
)

// benchChain builds an n-atom harmonic chain with unit spacing masses.
func benchChain(b *testing.B, n int) ([]*potential.BoundPotential, []float64, []float64, []float64, []float64) {
	b.Helper()
	idxs := make([]int32, 0, 2*(n-1))
	params := make([]float64, 0, 2*(n-1))
	for i := 0; i < n-1; i++ {
		idxs = append(idxs, int32(i), int32(i+1))
		params = append(params, 500.0, 0.4)
	}
	hb, err := potential.NewHarmonicBond(n, idxs)
	if err != nil {
		b.Fatalf("bond construction failed: %v", err)
	}
	b.Cleanup(hb.Free)
	buf, err := device.NewBufferFrom(params)
	if err != nil {
		b.Fatalf("param buffer failed: %v", err)
	}
	b.Cleanup(buf.Free)

	masses := make([]float64, n)
	x := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		masses[i] = 12.0
		x[3*i] = 0.41 * float64(i)
	}
	v := make([]float64, 3*n)
	box := []float64{100, 0, 0, 0, 100, 0, 0, 0, 100}
	return []*potential.BoundPotential{potential.Bind(hb, buf)}, masses, x, v, box
}

func BenchmarkLangevinStep(b *testing.B) {
	bps, masses, x, v, box := benchChain(b, 256)
	lg, err := NewLangevin(masses, 300, 0.0015, 1.0, 42)
	if err != nil {
		b.Fatalf("NewLangevin failed: %v", err)
	}
	defer lg.Free()

	stream := device.NewStream()
	defer stream.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := lg.StepFwd(bps, x, v, box, nil, stream); err != nil {
			b.Fatalf("step failed: %v", err)
		}
		stream.Synchronize()
	}
}

func BenchmarkVelocityVerletStep(b *testing.B) {
	bps, masses, x, v, box := benchChain(b, 256)
	vv, err := NewVelocityVerlet(masses, 0.0015)
	if err != nil {
		b.Fatalf("NewVelocityVerlet failed: %v", err)
	}
	defer vv.Free()

	stream := device.NewStream()
	defer stream.Close()
	if err := vv.Initialize(bps, x, v, box, nil, stream); err != nil {
		b.Fatalf("initialize failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := vv.StepFwd(bps, x, v, box, nil, stream); err != nil {
			b.Fatalf("step failed: %v", err)
		}
		stream.Synchronize()
	}
}
