package potential

import (
	"fmt"
	"sync"

	"github.com/ljmartin/timemachine/internal/device"
)

// SummedPotential sums child terms that read disjoint slices of one
// flattened parameter buffer, sized per child by paramSizes. With
// parallel set, child kernels run concurrently inside a single stream
// task; atomic accumulation makes the two modes indistinguishable.
//
// Child terms stay owned by their creators; Free releases nothing.
type SummedPotential struct {
	pots     []Potential
	sizes    []int
	total    int
	parallel bool
}

func NewSummedPotential(pots []Potential, paramSizes []int, parallel bool) (*SummedPotential, error) {
	if len(pots) == 0 {
		return nil, fmt.Errorf("%w: no potentials to sum", ErrInvalidParameter)
	}
	if len(pots) != len(paramSizes) {
		return nil, fmt.Errorf("%w: %d potentials with %d parameter sizes", ErrLengthMismatch, len(pots), len(paramSizes))
	}
	total := 0
	for i, sz := range paramSizes {
		if sz < 1 {
			return nil, fmt.Errorf("%w: parameter size %d for potential %d, want >= 1", ErrInvalidParameter, sz, i)
		}
		total += sz
	}
	return &SummedPotential{
		pots:     pots,
		sizes:    append([]int(nil), paramSizes...),
		total:    total,
		parallel: parallel,
	}, nil
}

func (s *SummedPotential) Execute(n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	return dispatch(s, n, p, coords, params, box, duDx, duDp, u, stream)
}

// GradFixedToFloat decodes slice by slice with each child's own channel
// mapping.
func (s *SummedPotential) GradFixedToFloat(duDp []int64, out []float64) error {
	if len(duDp) != s.total {
		return fmt.Errorf("%w: du_dp has %d values, want %d", ErrLengthMismatch, len(duDp), s.total)
	}
	if len(out) != s.total {
		return fmt.Errorf("%w: output has %d values, want %d", ErrLengthMismatch, len(out), s.total)
	}
	off := 0
	for i, pot := range s.pots {
		sz := s.sizes[i]
		if err := pot.GradFixedToFloat(duDp[off:off+sz], out[off:off+sz]); err != nil {
			return err
		}
		off += sz
	}
	return nil
}

func (s *SummedPotential) Free() {}

func (s *SummedPotential) validate(n, p int, coords, params, box []float64, duDx, duDp, u []int64) error {
	if p != s.total || len(params) != p {
		return fmt.Errorf("%w: params has %d values (p=%d), children define %d", ErrLengthMismatch, len(params), p, s.total)
	}
	if duDp != nil && len(duDp) != p {
		return fmt.Errorf("%w: du_dp has %d values, want %d", ErrLengthMismatch, len(duDp), p)
	}
	off := 0
	for i, pot := range s.pots {
		sz := s.sizes[i]
		var dp []int64
		if duDp != nil {
			dp = duDp[off : off+sz]
		}
		if err := pot.validate(n, sz, coords, params[off:off+sz], box, duDx, dp, u); err != nil {
			return err
		}
		off += sz
	}
	return nil
}

func (s *SummedPotential) accumulate(n int, coords, params, box []float64, duDx, duDp, u []int64) {
	var wg sync.WaitGroup
	off := 0
	for i, pot := range s.pots {
		sz := s.sizes[i]
		pslice := params[off : off+sz]
		var dp []int64
		if duDp != nil {
			dp = duDp[off : off+sz]
		}
		off += sz

		if !s.parallel {
			pot.accumulate(n, coords, pslice, box, duDx, dp, u)
			continue
		}
		wg.Add(1)
		go func(pot Potential, pslice []float64, dp []int64) {
			defer wg.Done()
			pot.accumulate(n, coords, pslice, box, duDx, dp, u)
		}(pot, pslice, dp)
	}
	wg.Wait()
}

// FanoutSummedPotential sums child terms that all read the same
// parameter buffer. The canonical composition pairs a dense pair list
// with its negated exclusions over one shared [N,4] atom table.
//
// Children must agree on the parameter layout; gradient decoding
// follows the first child.
type FanoutSummedPotential struct {
	pots     []Potential
	parallel bool
}

func NewFanoutSummedPotential(pots []Potential, parallel bool) (*FanoutSummedPotential, error) {
	if len(pots) == 0 {
		return nil, fmt.Errorf("%w: no potentials to fan out", ErrInvalidParameter)
	}
	return &FanoutSummedPotential{pots: pots, parallel: parallel}, nil
}

func (f *FanoutSummedPotential) Execute(n, p int, coords, params, box []float64, duDx, duDp, u []int64, stream *device.Stream) error {
	return dispatch(f, n, p, coords, params, box, duDx, duDp, u, stream)
}

func (f *FanoutSummedPotential) GradFixedToFloat(duDp []int64, out []float64) error {
	return f.pots[0].GradFixedToFloat(duDp, out)
}

func (f *FanoutSummedPotential) Free() {}

func (f *FanoutSummedPotential) validate(n, p int, coords, params, box []float64, duDx, duDp, u []int64) error {
	for _, pot := range f.pots {
		if err := pot.validate(n, p, coords, params, box, duDx, duDp, u); err != nil {
			return err
		}
	}
	return nil
}

func (f *FanoutSummedPotential) accumulate(n int, coords, params, box []float64, duDx, duDp, u []int64) {
	if !f.parallel {
		for _, pot := range f.pots {
			pot.accumulate(n, coords, params, box, duDx, duDp, u)
		}
		return
	}
	var wg sync.WaitGroup
	for _, pot := range f.pots {
		wg.Add(1)
		go func(pot Potential) {
			defer wg.Done()
			pot.accumulate(n, coords, params, box, duDx, duDp, u)
		}(pot)
	}
	wg.Wait()
}
