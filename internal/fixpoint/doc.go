// Package fixpoint converts real-valued force field quantities to and from
// scaled-integer form so that parallel accumulation is associative and
// bit-reproducible regardless of execution order.
//
// Every quantity belongs to a [Channel] with a fixed scale factor. Spatial
// forces and energies share one exponent; parameter gradients get an
// exponent per parameter kind, because charge-like, size-like and
// depth-like gradients differ in magnitude by orders of magnitude and a
// single exponent would lose precision on some kinds while overflowing
// others.
//
// Forces and gradients accumulate in int64 slots via atomic addition.
// Energies additionally reduce into a two-limb 128-bit total ([Int128]) so
// that summation over very large term counts stays detectable: a total at
// or beyond the int64 range reports [Overflowed] and decodes to NaN.
package fixpoint
