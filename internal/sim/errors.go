package sim

import "errors"

var (
	ErrInvalidParameter = errors.New("sim: invalid parameter")
	ErrLengthMismatch   = errors.New("sim: length mismatch")

	// ErrEnergyOverflow reports that the fixed-point energy accumulator
	// saturated, so the reduced energy is not a real number.
	ErrEnergyOverflow = errors.New("sim: energy accumulator overflow")
)
