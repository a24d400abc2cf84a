package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent replicas of one experiment, seeded
// seedStart, seedStart+1, ..., each replica in its own goroutine. The
// first failure cancels the remaining replicas.
type Ensemble struct {
	run       RunFunc
	numRuns   int
	seedStart int64
}

func NewEnsemble(run RunFunc, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{run: run, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			res, err := e.run(gctx, e.seedStart+int64(idx))
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
