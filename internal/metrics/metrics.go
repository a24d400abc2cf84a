// Package metrics provides run-level summary statistics collected
// from simulation samples.
package metrics

import "github.com/ljmartin/timemachine/internal/sim"

// Default returns the standard metric set attached to every run.
func Default() []sim.Metric {
	return []sim.Metric{
		NewMeanEnergy(),
		NewEnergyDrift(),
		NewMeanTemperature(),
		NewStability(0),
		NewPeakForce(),
	}
}
