// Package compute provides the CPU fan-out primitive shared by the
// interaction kernels and integrator update loops.
//
// Kernels distribute interaction terms across worker goroutines:
//
//	compute.ParallelFor(numBonds, 64, func(start, end int) {
//		for b := start; b < end; b++ { ... }
//	})
//
// Writes inside a parallel region land through atomic adds, so chunk
// boundaries never change results.
package compute
