package fixpoint

import "math"

// Channel identifies the scale factor used for one semantic kind of
// quantity. The kind -> exponent mapping is fixed for the lifetime of the
// process; a value encoded on one channel must never be decoded on another.
type Channel int

const (
	// Force is the shared channel for spatial forces and position-only
	// gradients. Energies are encoded at the same exponent.
	Force Channel = iota
	// GradCharge covers charge-like parameter gradients.
	GradCharge
	// GradSigma covers size-like parameter gradients.
	GradSigma
	// GradEpsilon covers well-depth-like parameter gradients.
	GradEpsilon
	// GradOffset covers coordinate-offset parameter gradients.
	GradOffset
)

const (
	forceExponent   = float64(uint64(1) << 36)
	chargeExponent  = float64(uint64(1) << 36)
	sigmaExponent   = float64(uint64(1) << 37)
	epsilonExponent = float64(uint64(1) << 38)
	offsetExponent  = float64(uint64(1) << 36)
)

func (c Channel) exponent() float64 {
	switch c {
	case GradCharge:
		return chargeExponent
	case GradSigma:
		return sigmaExponent
	case GradEpsilon:
		return epsilonExponent
	case GradOffset:
		return offsetExponent
	default:
		return forceExponent
	}
}

func (c Channel) String() string {
	switch c {
	case Force:
		return "force"
	case GradCharge:
		return "grad_charge"
	case GradSigma:
		return "grad_sigma"
	case GradEpsilon:
		return "grad_epsilon"
	case GradOffset:
		return "grad_offset"
	default:
		return "unknown"
	}
}

// Encode converts x to the channel's scaled-integer representation,
// rounding to the nearest representable value. Magnitudes beyond the
// channel's range wrap; accumulations that may approach the range must be
// guarded with Overflowed on the reduced total.
func Encode(x float64, c Channel) int64 {
	return int64(math.Round(x * c.exponent()))
}

// Decode converts a scaled integer back to a real value. It is exact: all
// rounding happened at encode time.
func Decode(v int64, c Channel) float64 {
	return float64(v) / c.exponent()
}

// Quantum reports the spacing between adjacent representable values on the
// channel, i.e. the worst-case round-trip error of a single Encode.
func Quantum(c Channel) float64 {
	return 1.0 / c.exponent()
}
