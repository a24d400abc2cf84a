package fixpoint

import (
	"math"
	"math/bits"
)

// Int128 is a signed 128-bit accumulator for energy totals. Per-term
// energies land in int64 slots; reducing the slots through Int128 keeps the
// sum exact well past the int64 range so overflow is detectable instead of
// silently wrapping.
type Int128 struct {
	hi int64
	lo uint64
}

// FromInt64 widens v to 128 bits.
func FromInt64(v int64) Int128 {
	return Int128{hi: v >> 63, lo: uint64(v)}
}

// AddInt64 returns a + v with sign extension and carry propagation.
func (a Int128) AddInt64(v int64) Int128 {
	lo, carry := bits.Add64(a.lo, uint64(v), 0)
	return Int128{hi: a.hi + (v >> 63) + int64(carry), lo: lo}
}

// Add returns a + b.
func (a Int128) Add(b Int128) Int128 {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	return Int128{hi: a.hi + b.hi + int64(carry), lo: lo}
}

// SumEnergy reduces per-slot energy accumulators into one 128-bit total.
// Integer addition is associative, so the result does not depend on slot
// order and matches what any permutation of the accumulation produced.
func SumEnergy(slots []int64) Int128 {
	var total Int128
	for _, s := range slots {
		total = total.AddInt64(s)
	}
	return total
}

// Overflowed reports whether the total has left the representable range of
// the narrower force-channel integer. MaxInt64 and MinInt64 themselves
// count as overflowed: the extremes are reserved as saturation sentinels.
// A true result means the energy is meaningless and must not be decoded.
func Overflowed(v Int128) bool {
	switch v.hi {
	case 0:
		return v.lo >= uint64(math.MaxInt64)
	case -1:
		return v.lo <= 1<<63
	default:
		return true
	}
}

// EnergyToFloat decodes a reduced energy total at the force exponent.
// Overflowed totals decode to NaN so they cannot be mistaken for physical
// values; check Overflowed first when the caller needs to distinguish.
func EnergyToFloat(v Int128) float64 {
	if Overflowed(v) {
		return math.NaN()
	}
	return float64(int64(v.lo)) / forceExponent
}
