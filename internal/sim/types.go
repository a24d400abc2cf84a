package sim

import "context"

// Sample is one observation of a running system, taken every store
// interval. All values are in MD units: ps, kJ/mol, K, nm.
type Sample struct {
	Step        int
	Time        float64
	Energy      float64
	Temperature float64
	MaxForce    float64
	Volume      float64
}

// Metric folds a stream of samples into a single summary number.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Observer is notified with the stored frame alongside each sample.
// The frame slice is pooled and reused after OnSample returns;
// observers that keep it must copy.
type Observer interface {
	OnSample(frame []float64, s Sample)
}

// RunConfig controls a production run driven by Run.
type RunConfig struct {
	// Dt is the integrator timestep in ps, used for timestamps.
	Dt float64
	// Steps is the total number of timesteps to advance.
	Steps int
	// StoreInterval is the number of steps between stored frames.
	// Zero or negative stores only the final frame.
	StoreInterval int
	// Masses are per-atom masses in g/mol, used for the kinetic
	// temperature estimate.
	Masses []float64
}

type Result struct {
	Times        []float64
	Energies     []float64
	Temperatures []float64
	Frames       [][]float64
	Boxes        [][]float64
	Metrics      map[string]float64
	StepsTaken   int
}

// RunFunc builds and runs one replica; used by Ensemble.
type RunFunc func(ctx context.Context, seed int64) (*Result, error)
