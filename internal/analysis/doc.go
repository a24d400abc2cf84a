// Package analysis computes observables from stored trajectories.
//
// All functions are post-hoc: they consume sampled frames and energy
// series, never a live simulation. Included tools:
//
//   - [MeanSquaredDisplacement]: displacement statistics per time lag
//   - [DiffusionCoefficient]: Einstein-relation fit of an MSD curve
//   - [PowerSpectrum]: FFT power spectrum of a scalar series
//   - [DominantFrequency]: strongest non-DC spectral line
//   - [RadialDistribution]: pair correlation g(r) under minimum imaging
//   - [TrajectoryDivergence]: frame-by-frame separation of two runs
//   - [GrowthRate]: exponential divergence rate of a separation series
//
// # Reproducibility Checks
//
// Two runs with the same seed should never diverge:
//
//	sep := analysis.TrajectoryDivergence(framesA, framesB)
//	if analysis.MaxValue(sep) > 0 {
//	    // Determinism is broken somewhere
//	}
package analysis
