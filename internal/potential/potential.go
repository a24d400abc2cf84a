package potential

import (
	"fmt"
	"sync/atomic"

	"github.com/ljmartin/timemachine/internal/device"
	"github.com/ljmartin/timemachine/internal/fixpoint"
)

// Interaction terms below this many entries are not worth fanning out.
const minKernelChunk = 64

// Potential is the capability every interaction term implements.
//
// Execute accumulates one evaluation over n atoms and p flattened
// parameters into whichever of duDx (3n force-channel gradients), duDp
// (p parameter gradients) and u (1 or n energy slots) are non-nil. All
// writes are encoded fixed-point atomic adds; the term never zeroes a
// buffer. Argument shapes are checked synchronously and the kernel is
// then issued on stream, so a non-nil error means nothing was enqueued.
//
// GradFixedToFloat decodes an accumulated parameter gradient, applying
// the per-column channel mapping the term's layout defines.
//
// Free releases device storage the term owns (topology index arrays and
// the like). Parameter buffers belong to the caller and are not touched.
type Potential interface {
	Execute(n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error
	GradFixedToFloat(duDp []int64, out []float64) error
	Free()

	validate(n, p int, coords, params, box []float64, duDx, duDp, u []int64) error
	accumulate(n int, coords, params, box []float64, duDx, duDp, u []int64)
}

// dispatch is the shared Execute body: validate on the caller's
// goroutine, skip entirely when no output is requested, otherwise issue
// the accumulation as one stream task.
func dispatch(pot Potential, n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	if err := pot.validate(n, p, coords, params, box, duDx, duDp, u); err != nil {
		return err
	}
	if duDx == nil && duDp == nil && u == nil {
		return nil
	}
	stream.Submit(func() {
		pot.accumulate(n, coords, params, box, duDx, duDp, u)
	})
	return nil
}

// checkLayout validates the shapes common to every term. wantN < 0 skips
// the atom-count check for wrappers that carry no topology of their own.
func checkLayout(n, wantN, p, wantP int, coords, params, box []float64, duDx, duDp, u []int64) error {
	if wantN >= 0 && n != wantN {
		return fmt.Errorf("%w: called with %d atoms, topology built for %d", ErrLengthMismatch, n, wantN)
	}
	if len(coords) != 3*n {
		return fmt.Errorf("%w: coords has %d values, want %d", ErrLengthMismatch, len(coords), 3*n)
	}
	if p != wantP {
		return fmt.Errorf("%w: called with p=%d, term defines %d parameters", ErrLengthMismatch, p, wantP)
	}
	if len(params) != p {
		return fmt.Errorf("%w: params has %d values, want %d", ErrLengthMismatch, len(params), p)
	}
	if err := ValidateBox(box); err != nil {
		return err
	}
	if duDx != nil && len(duDx) != 3*n {
		return fmt.Errorf("%w: du_dx has %d values, want %d", ErrLengthMismatch, len(duDx), 3*n)
	}
	if duDp != nil && len(duDp) != p {
		return fmt.Errorf("%w: du_dp has %d values, want %d", ErrLengthMismatch, len(duDp), p)
	}
	if u != nil && len(u) != 1 && len(u) != n {
		return fmt.Errorf("%w: energy buffer has %d slots, want 1 or %d", ErrLengthMismatch, len(u), n)
	}
	return nil
}

// validateIdxs checks a [T,width] index array against the atom count.
// Terms are fixed at construction, so Execute never re-checks indices.
func validateIdxs(numAtoms int, idxs []int32, width int, kind string) error {
	if numAtoms < 1 {
		return fmt.Errorf("%w: numAtoms = %d, want >= 1", ErrInvalidParameter, numAtoms)
	}
	if len(idxs) == 0 || len(idxs)%width != 0 {
		return fmt.Errorf("%w: %s index array has %d entries, want a positive multiple of %d",
			ErrInvalidParameter, kind, len(idxs), width)
	}
	for _, ix := range idxs {
		if ix < 0 || int(ix) >= numAtoms {
			return fmt.Errorf("%w: %s index %d with %d atoms", ErrIndexOutOfRange, kind, ix, numAtoms)
		}
	}
	return nil
}

// addFixed encodes v on the channel and lands it with an atomic add, the
// only way any kernel writes to an accumulation buffer.
func addFixed(buf []int64, idx int, v float64, ch fixpoint.Channel) {
	atomic.AddInt64(&buf[idx], fixpoint.Encode(v, ch))
}

// uSlot maps a term's anchor atom to its energy slot: slot 0 when the
// caller asked for a scalar total, the atom's own slot when it asked for
// a per-atom decomposition.
func uSlot(u []int64, atom int) int {
	if len(u) == 1 {
		return 0
	}
	return atom
}

// decodeUniform decodes a parameter gradient whose columns all carry the
// force-channel scale, the layout shared by the bonded terms.
func decodeUniform(duDp []int64, out []float64, want int) error {
	if len(duDp) != want {
		return fmt.Errorf("%w: du_dp has %d values, want %d", ErrLengthMismatch, len(duDp), want)
	}
	if len(out) != want {
		return fmt.Errorf("%w: output has %d values, want %d", ErrLengthMismatch, len(out), want)
	}
	for i, v := range duDp {
		out[i] = fixpoint.Decode(v, fixpoint.Force)
	}
	return nil
}
