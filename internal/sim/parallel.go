package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is one independent run, typically an experiment with its own plant,
// mesh and regulators.
type Job func(ctx context.Context) (*Result, error)

// Batch runs independent jobs with a bounded number in flight.
type Batch struct {
	workers int
}

// NewBatch returns a batch running at most workers jobs at once. A
// non-positive value leaves the batch unbounded.
func NewBatch(workers int) *Batch {
	return &Batch{workers: workers}
}

// Run executes every job and returns results and errors in job order. A
// failing job does not stop the others; only cancelling ctx does.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]*Result, []error, error) {
	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if b.workers > 0 {
		g.SetLimit(b.workers)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = job(gctx)
			return nil
		})
	}
	g.Wait()
	return results, errs, ctx.Err()
}
