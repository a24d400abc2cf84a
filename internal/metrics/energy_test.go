package metrics

import (
	"math"
	"testing"

	"github.com/ljmartin/timemachine/internal/sim"
)

func TestMeanEnergy(t *testing.T) {
	m := NewMeanEnergy()

	m.Observe(sim.Sample{Energy: 2.0})
	m.Observe(sim.Sample{Energy: 4.0})

	if got := m.Value(); got != 3.0 {
		t.Errorf("expected mean energy 3.0, got %f", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()

	m.Observe(sim.Sample{Energy: 10.0})
	if m.Value() != 0 {
		t.Errorf("first sample should carry no drift, got %f", m.Value())
	}

	m.Observe(sim.Sample{Energy: 10.5})
	m.Observe(sim.Sample{Energy: 9.0})
	m.Observe(sim.Sample{Energy: 10.2})

	// Worst excursion is |9.0 - 10.0| / 10.0.
	if got := m.Value(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("expected drift 0.1, got %f", got)
	}

	m.Reset()
	m.Observe(sim.Sample{Energy: -5.0})
	m.Observe(sim.Sample{Energy: -6.0})
	if got := m.Value(); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("drift should be relative to the new baseline, got %f", got)
	}
}

func TestEnergyDriftZeroBaseline(t *testing.T) {
	m := NewEnergyDrift()

	m.Observe(sim.Sample{Energy: 0})
	m.Observe(sim.Sample{Energy: 100})

	if m.Value() != 0 {
		t.Errorf("zero baseline cannot define relative drift, got %f", m.Value())
	}
}
