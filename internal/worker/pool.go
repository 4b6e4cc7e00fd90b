package worker

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/filemill/internal/logging"
)

// Pool runs several identical workers over the same queues. The shared
// queue lease protocol keeps them from stepping on each other.
type Pool struct {
	worker *Worker
	count  int
	logger logging.Logger
}

func NewPool(w *Worker, count int, logger logging.Logger) *Pool {
	if count < 1 {
		count = 1
	}
	return &Pool{worker: w, count: count, logger: logger}
}

// Run starts the workers and blocks until all of them return.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, p.count)

	for i := 0; i < p.count; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.logger.Info(ctx, "worker started", "worker", n)
			if err := p.worker.Run(ctx); err != nil {
				errCh <- err
			}
			p.logger.Info(ctx, "worker stopped", "worker", n)
		}(i)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}
