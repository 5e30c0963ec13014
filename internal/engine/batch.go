package engine

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one tutorial of a batch.
type Job struct {
	Name   string
	Inputs Inputs
}

// BatchResult pairs a job with its outcome.
type BatchResult struct {
	Name   string
	Result *Result
	Err    error
}

// RunBatch compiles jobs with at most parallelism running at once. A failed
// job does not stop the others. Results keep the order of jobs.
func (p *Project) RunBatch(ctx context.Context, jobs []Job, parallelism int) ([]BatchResult, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	results := make([]BatchResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = BatchResult{Name: job.Name, Err: err}
				return err
			}
			res, err := p.Run(gctx, job.Inputs)
			results[i] = BatchResult{Name: job.Name, Result: res, Err: err}
			if err != nil && p.Logger != nil {
				p.Logger.Warn("job failed", zap.String("job", job.Name), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
