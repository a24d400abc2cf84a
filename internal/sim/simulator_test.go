package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/integrators"
	"github.com/ljmartin/timemachine/internal/potential"
	"github.com/ljmartin/timemachine/internal/units"
)

type countingMetric struct {
	n    int
	last Sample
}

func (m *countingMetric) Name() string     { return "count" }
func (m *countingMetric) Observe(s Sample) { m.n++; m.last = s }
func (m *countingMetric) Value() float64   { return float64(m.n) }
func (m *countingMetric) Reset()           { m.n = 0 }

type scribblingObserver struct {
	calls int
	lastE float64
}

func (o *scribblingObserver) OnSample(frame []float64, s Sample) {
	o.calls++
	o.lastE = s.Energy
	// The frame is pooled; scribbling must not leak into results.
	for i := range frame {
		frame[i] = -1
	}
}

func TestTemperatureAnalytic(t *testing.T) {
	// One atom with m = 3kB and unit speed gives exactly 1 K.
	got := Temperature([]float64{1, 0, 0}, []float64{3 * units.Boltz})
	if math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("Temperature = %v, want 1.0", got)
	}
	if Temperature(nil, nil) != 0 {
		t.Fatal("empty system should report zero temperature")
	}
	if Temperature([]float64{1, 2}, []float64{1}) != 0 {
		t.Fatal("mismatched lengths should report zero temperature")
	}
}

func TestRunProducesSamples(t *testing.T) {
	bps, x0, v0, box, masses, cleanup := dimer(t)
	defer cleanup()
	c := nveContext(t, bps, x0, v0, box, masses, 0.001)

	cfg := RunConfig{Dt: 0.001, Steps: 10, StoreInterval: 2, Masses: masses}
	res, err := Run(context.Background(), c, cfg, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.StepsTaken != 10 {
		t.Fatalf("StepsTaken = %d, want 10", res.StepsTaken)
	}
	if len(res.Times) != 5 || len(res.Energies) != 5 || len(res.Frames) != 5 || len(res.Boxes) != 5 {
		t.Fatalf("sample counts = %d/%d/%d/%d, want 5 each",
			len(res.Times), len(res.Energies), len(res.Frames), len(res.Boxes))
	}
	for i, tm := range res.Times {
		want := float64(2*(i+1)) * cfg.Dt
		if math.Abs(tm-want) > 1e-12 {
			t.Errorf("Times[%d] = %v, want %v", i, tm, want)
		}
	}
	for i, e := range res.Energies {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			t.Errorf("Energies[%d] = %v", i, e)
		}
	}
	for i, tmp := range res.Temperatures {
		if tmp < 0 || math.IsNaN(tmp) {
			t.Errorf("Temperatures[%d] = %v", i, tmp)
		}
	}
	for i, b := range res.Boxes {
		if v := potential.Volume(b); v != 1000.0 {
			t.Errorf("Boxes[%d] volume = %v, want 1000", i, v)
		}
	}
	// The bond relaxes, so total energy falls below its starting value.
	e0 := 0.5 * dimerK * (0.3 - dimerB0) * (0.3 - dimerB0)
	if res.Energies[0] >= e0 {
		t.Errorf("potential energy did not relax: %v >= %v", res.Energies[0], e0)
	}
}

func TestRunMetricsAndObservers(t *testing.T) {
	bps, x0, v0, box, masses, cleanup := dimer(t)
	defer cleanup()
	c := nveContext(t, bps, x0, v0, box, masses, 0.001)

	metric := &countingMetric{n: 99} // Run must Reset before observing
	obs := &scribblingObserver{}
	cfg := RunConfig{Dt: 0.001, Steps: 10, StoreInterval: 2, Masses: masses}
	res, err := Run(context.Background(), c, cfg, []Metric{metric}, []Observer{obs})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := res.Metrics["count"]; got != 5 {
		t.Fatalf("Metrics[count] = %v, want 5", got)
	}
	if obs.calls != 5 {
		t.Fatalf("observer called %d times, want 5", obs.calls)
	}
	if obs.lastE != res.Energies[len(res.Energies)-1] {
		t.Fatalf("observer saw energy %v, result has %v", obs.lastE, res.Energies[len(res.Energies)-1])
	}
	if metric.last.Step != 10 {
		t.Fatalf("last sample step = %d, want 10", metric.last.Step)
	}
	for i, f := range res.Frames {
		for j, v := range f {
			if v == -1 {
				t.Fatalf("observer scribble leaked into Frames[%d][%d]", i, j)
			}
		}
	}
}

func TestRunValidation(t *testing.T) {
	bps, x0, v0, box, masses, cleanup := dimer(t)
	defer cleanup()
	c := nveContext(t, bps, x0, v0, box, masses, 0.001)

	tests := []struct {
		name string
		cfg  RunConfig
		want error
	}{
		{"zero dt", RunConfig{Dt: 0, Steps: 10, Masses: masses}, ErrInvalidParameter},
		{"zero steps", RunConfig{Dt: 0.001, Steps: 0, Masses: masses}, ErrInvalidParameter},
		{"masses mismatch", RunConfig{Dt: 0.001, Steps: 10, Masses: masses[:1]}, ErrLengthMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Run(context.Background(), c, tc.cfg, nil, nil); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	bps, x0, v0, box, masses, cleanup := dimer(t)
	defer cleanup()
	c := nveContext(t, bps, x0, v0, box, masses, 0.001)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := RunConfig{Dt: 0.001, Steps: 100, StoreInterval: 10, Masses: masses}
	res, err := Run(ctx, c, cfg, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want %v", err, context.Canceled)
	}
	if res == nil || res.StepsTaken != 0 {
		t.Fatalf("cancelled run should return an empty partial result, got %+v", res)
	}
}

func TestRunStopsOnEnergyOverflow(t *testing.T) {
	hb, err := potential.NewHarmonicBond(3, []int32{0, 1, 2, 1})
	if err != nil {
		t.Fatalf("NewHarmonicBond: %v", err)
	}
	defer hb.Free()
	params, err := device.NewBufferFrom([]float64{2e8, 0, 2e8, 0})
	if err != nil {
		t.Fatalf("NewBufferFrom: %v", err)
	}
	defer params.Free()

	x0 := []float64{0, 0, 0, 0, 0, 1, 0, 0, 2}
	v0 := make([]float64, 9)
	box := []float64{10, 0, 0, 0, 10, 0, 0, 0, 10}
	masses := []float64{1, 1, 1}
	bps := []*potential.BoundPotential{potential.Bind(hb, params)}
	// A vanishing timestep keeps the geometry pinned at the overflowing
	// configuration.
	c := nveContext(t, bps, x0, v0, box, masses, 1e-12)

	cfg := RunConfig{Dt: 1e-12, Steps: 4, StoreInterval: 2, Masses: masses}
	res, err := Run(context.Background(), c, cfg, nil, nil)
	if !errors.Is(err, ErrEnergyOverflow) {
		t.Fatalf("error = %v, want %v", err, ErrEnergyOverflow)
	}
	if res.StepsTaken != 2 {
		t.Fatalf("StepsTaken = %d, want 2", res.StepsTaken)
	}
	if len(res.Energies) != 0 {
		t.Fatalf("overflowed energies were recorded: %v", res.Energies)
	}
}

func TestEnsembleRunsReplicas(t *testing.T) {
	bps, x0, v0, box, masses, cleanup := dimer(t)
	defer cleanup()

	run := func(runCtx context.Context, seed int64) (*Result, error) {
		intg, err := integrators.NewLangevin(masses, 300, 0.001, 1.0, seed)
		if err != nil {
			return nil, err
		}
		defer intg.Free()
		c, err := NewContext(x0, v0, box, intg, bps, nil)
		if err != nil {
			return nil, err
		}
		defer c.Free()
		cfg := RunConfig{Dt: 0.001, Steps: 20, StoreInterval: 5, Masses: masses}
		return Run(runCtx, c, cfg, nil, nil)
	}

	results, err := NewEnsemble(run, 3, 100).Run(context.Background())
	if err != nil {
		t.Fatalf("Ensemble.Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r == nil || len(r.Energies) != 4 {
			t.Fatalf("replica %d incomplete: %+v", i, r)
		}
	}
	// Different seeds draw different noise, so replicas diverge.
	if results[0].Energies[3] == results[1].Energies[3] {
		t.Fatal("replicas with different seeds produced identical energies")
	}
}

func TestEnsemblePropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	run := func(ctx context.Context, seed int64) (*Result, error) {
		if seed >= 2 {
			return nil, boom
		}
		return &Result{}, nil
	}
	if _, err := NewEnsemble(run, 4, 0).Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestFramePool(t *testing.T) {
	p := NewFramePool(6)
	src := []float64{1, 2, 3, 4, 5, 6}
	f := p.GetAndCopy(src)
	if len(f) != 6 {
		t.Fatalf("len = %d, want 6", len(f))
	}
	for i := range src {
		if f[i] != src[i] {
			t.Fatalf("copy mismatch at %d", i)
		}
	}
	p.Put(f)
	p.Put(make([]float64, 3)) // wrong size, silently dropped
	if g := p.Get(); len(g) != 6 {
		t.Fatalf("recycled slice has len %d, want 6", len(g))
	}
}
