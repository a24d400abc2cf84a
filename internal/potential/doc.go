// Package potential implements composable force-field interaction terms.
//
// Every term satisfies the [Potential] capability: given device-resident
// coordinates, a periodic box and a flat parameter buffer, it atomically
// adds encoded fixed-point contributions into caller-supplied force,
// parameter-gradient and energy buffers. Terms never zero or overwrite
// those buffers; the [Runner] zeroes them once per round and dispatches
// every bound term against the same stream, so an arbitrary composition of
// terms sums without any inter-term coupling logic, and the totals are
// independent of dispatch order.
//
// A nil output buffer means the caller does not want that quantity, and
// the term skips the corresponding computation entirely.
//
// Displacements apply the minimum-image convention over the orthorhombic
// box diagonal through one shared helper, so periodic wrapping is
// bit-identical across all terms.
package potential
