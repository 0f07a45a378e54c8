package worker

import (
	"context"
	"sync"
)

// Task is a unit of work run by a Pool
type Task func(ctx context.Context) error

// Pool runs tasks on a bounded number of goroutines
type Pool struct {
	workers int
}

// NewPool creates a pool running at most workers tasks at once
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes every task and waits for all of them.
// errs[i] is the error returned by tasks[i]. Tasks not yet started when ctx
// is cancelled are skipped and report ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks ...Task) (errs []error) {
	errs = make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(p.workers, len(tasks)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				errs[i] = tasks[i](ctx)
			}
		}()
	}

	for i := range tasks {
		queue <- i
	}
	close(queue)
	wg.Wait()
	return errs
}

// FirstError returns the first non-nil error in errs
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
