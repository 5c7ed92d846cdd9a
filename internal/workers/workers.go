package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type Workers struct {
	workers []Worker
}

func New(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

func (w *Workers) Add(workers ...Worker) {
	w.workers = append(w.workers, workers...)
}

func (w *Workers) Len() int {
	return len(w.workers)
}

// Run starts every worker in its own goroutine and blocks until all of them
// returned. The first error cancels the context of the others.
func (w *Workers) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, worker := range w.workers {
		g.Go(func() error {
			return worker.Run(ctx)
		})
	}
	return g.Wait()
}
