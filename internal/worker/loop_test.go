package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoop_RunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	loop := NewLoop(time.Hour, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first pass did not run before the first tick")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoop_SurvivesErrorsAndPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	var mu sync.Mutex
	calls := 0
	var results []error

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := NewLoop(5*time.Millisecond, func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		switch calls {
		case 1:
			return errors.New("feed unwritable")
		case 2:
			panic("nil map")
		case 4:
			cancel()
		}
		return nil
	}, zap.New(core))
	loop.OnResult = func(err error) {
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
	}

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls < 4 {
		t.Fatalf("expected at least 4 passes, got %d", calls)
	}
	if results[0] == nil || results[1] == nil {
		t.Errorf("expected first two passes to fail, got %v", results[:2])
	}
	if results[2] != nil {
		t.Errorf("expected third pass to succeed, got %v", results[2])
	}
	if logs.FilterMessage("Poll pass panicked").Len() != 1 {
		t.Errorf("expected one panic log entry")
	}
	if logs.FilterMessage("Poll pass failed").Len() < 2 {
		t.Errorf("expected failures to be logged")
	}
}

func TestLoop_RejectsZeroInterval(t *testing.T) {
	loop := NewLoop(0, func(context.Context) error { return nil }, nil)
	if err := loop.Run(context.Background()); err == nil {
		t.Errorf("expected error for zero interval")
	}
}

func TestLoop_RunOnce(t *testing.T) {
	loop := NewLoop(time.Minute, func(context.Context) error {
		return errors.New("schema")
	}, nil)
	if err := loop.RunOnce(context.Background()); err == nil {
		t.Errorf("expected pass error to be returned")
	}
}
