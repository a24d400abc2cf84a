package metrics

import (
	"math"

	"github.com/ljmartin/timemachine/internal/sim"
	"github.com/ljmartin/timemachine/internal/units"
)

// Stability scores the fraction of samples whose largest per-atom
// force stays under a threshold. A score below 1.0 usually means the
// timestep is too aggressive for the steepest interaction.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

// NewStability uses the conventional blow-up threshold when the
// caller passes a non-positive one.
func NewStability(threshold float64) *Stability {
	if threshold <= 0 {
		threshold = units.MaxForceNorm
	}
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sample sim.Sample) {
	s.samples++
	if sample.MaxForce > s.threshold || math.IsNaN(sample.MaxForce) || math.IsInf(sample.MaxForce, 0) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// PeakForce remembers the largest per-atom force norm seen in the run.
type PeakForce struct {
	name string
	max  float64
}

func NewPeakForce() *PeakForce {
	return &PeakForce{name: "peak_force"}
}

func (p *PeakForce) Name() string { return p.name }

func (p *PeakForce) Observe(s sim.Sample) {
	if s.MaxForce > p.max {
		p.max = s.MaxForce
	}
}

func (p *PeakForce) Value() float64 {
	return p.max
}

func (p *PeakForce) Reset() {
	p.max = 0
}
