package provision

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchOptions bounds a multi-target run. Parallelism <= 0 means unbounded.
// FailFast cancels the remaining jobs after the first failure.
type BatchOptions struct {
	Parallelism int
	FailFast    bool
}

// ProvisionAll runs each job as an independent pipeline. Results keep job order.
func (o *Orchestrator) ProvisionAll(ctx context.Context, jobs []Job, opts BatchOptions) ([]Result, error) {
	results := make([]Result, len(jobs))
	group, groupCtx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		group.SetLimit(opts.Parallelism)
	}

	for i, job := range jobs {
		group.Go(func() error {
			plan, err := o.Provision(groupCtx, job)
			results[i] = Result{Instance: job.Instance, Plan: plan, Err: err}
			if err != nil && opts.FailFast {
				return fmt.Errorf("instance=%q: %w", job.Instance, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("instance=%q: %w", result.Instance, result.Err))
		}
	}
	return results, errors.Join(errs...)
}
