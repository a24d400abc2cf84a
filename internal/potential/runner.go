package potential

import (
	"fmt"

	"github.com/ljmartin/timemachine/internal/device"
)

// Runner drives rounds of bound-potential evaluation against a stream.
// Each round zeroes the caller's accumulation buffers in one leading
// task, then issues every bound term. Contributions land through atomic
// adds, so the totals do not depend on issue order; per-term parameter
// gradients are laid out at prefix-sum offsets of the terms' sizes.
type Runner struct{}

// Execute runs one evaluation round. Every argument is validated before
// anything is enqueued, so a non-nil error leaves the buffers untouched.
func (r *Runner) Execute(bps []*BoundPotential, n int, coords, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	if len(bps) == 0 {
		return fmt.Errorf("%w: no bound potentials", ErrInvalidParameter)
	}
	total := 0
	for _, bp := range bps {
		total += bp.Size()
	}
	if duDp != nil && len(duDp) != total {
		return fmt.Errorf("%w: du_dp has %d values, terms define %d", ErrLengthMismatch, len(duDp), total)
	}

	off := 0
	for _, bp := range bps {
		var dp []int64
		if duDp != nil {
			dp = duDp[off : off+bp.Size()]
		}
		if err := bp.Potential.validate(n, bp.Size(), coords, bp.Params.Data(), box, duDx, dp, u); err != nil {
			return err
		}
		off += bp.Size()
	}

	if duDx == nil && duDp == nil && u == nil {
		return nil
	}

	stream.Submit(func() {
		zeroInt64(duDx)
		zeroInt64(duDp)
		zeroInt64(u)
	})

	off = 0
	for _, bp := range bps {
		pot := bp.Potential
		params := bp.Params.Data()
		var dp []int64
		if duDp != nil {
			dp = duDp[off : off+bp.Size()]
		}
		off += bp.Size()
		stream.Submit(func() {
			pot.accumulate(n, coords, params, box, duDx, dp, u)
		})
	}
	return nil
}

func zeroInt64(buf []int64) {
	for i := range buf {
		buf[i] = 0
	}
}
