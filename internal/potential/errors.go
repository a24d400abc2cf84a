package potential

import "errors"

var (
	ErrInvalidBox       = errors.New("potential: invalid box")
	ErrLengthMismatch   = errors.New("potential: buffer length mismatch")
	ErrIndexOutOfRange  = errors.New("potential: atom index out of range")
	ErrInvalidParameter = errors.New("potential: invalid parameter")
)
