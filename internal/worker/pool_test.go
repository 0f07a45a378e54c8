package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	if p := NewPool(0); p.workers != 1 {
		t.Errorf("expected 1 worker for 0, got %d", p.workers)
	}
	if p := NewPool(4); p.workers != 4 {
		t.Errorf("expected 4 workers, got %d", p.workers)
	}
}

func TestPool_Run(t *testing.T) {
	var executed int32
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			atomic.AddInt32(&executed, 1)
			return nil
		}
	}

	errs := NewPool(3).Run(context.Background(), tasks...)

	if len(errs) != len(tasks) {
		t.Fatalf("expected %d errors slots, got %d", len(tasks), len(errs))
	}
	if atomic.LoadInt32(&executed) != int32(len(tasks)) {
		t.Errorf("expected %d executed tasks, got %d", len(tasks), executed)
	}
	if err := FirstError(errs); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 4
	var current, peak int32
	var mu sync.Mutex

	tasks := make([]Task, 30)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			curr := atomic.AddInt32(&current, 1)
			mu.Lock()
			if curr > peak {
				peak = curr
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return nil
		}
	}

	NewPool(workers).Run(context.Background(), tasks...)

	mu.Lock()
	defer mu.Unlock()
	if peak > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", peak, workers)
	}
	if peak <= 1 {
		t.Logf("Warning: max concurrency was %d, expected > 1", peak)
	}
}

func TestPool_ErrorsKeepTaskOrder(t *testing.T) {
	boom := errors.New("boom")
	errs := NewPool(2).Run(context.Background(),
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { return nil },
	)

	if errs[0] != nil || errs[2] != nil {
		t.Errorf("unexpected errors: %v", errs)
	}
	if !errors.Is(errs[1], boom) {
		t.Errorf("expected boom at index 1, got %v", errs[1])
	}
	if !errors.Is(FirstError(errs), boom) {
		t.Errorf("FirstError = %v, want boom", FirstError(errs))
	}
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed int32
	errs := NewPool(2).Run(ctx,
		func(ctx context.Context) error { atomic.AddInt32(&executed, 1); return nil },
		func(ctx context.Context) error { atomic.AddInt32(&executed, 1); return nil },
	)

	if executed != 0 {
		t.Errorf("expected no tasks to run, %d ran", executed)
	}
	for i, err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("errs[%d] = %v, want context.Canceled", i, err)
		}
	}
}

func TestPool_Empty(t *testing.T) {
	if errs := NewPool(2).Run(context.Background()); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}
