package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// PassFunc runs one unit of periodic work
type PassFunc func(ctx context.Context) error

// Loop runs a pass immediately and then on every tick until ctx is done.
// A failing or panicking pass is logged and the loop keeps going.
type Loop struct {
	Interval time.Duration
	Pass     PassFunc
	Logger   *zap.Logger

	// OnResult, if set, is called after every pass with its outcome
	OnResult func(err error)
}

// NewLoop creates a loop
func NewLoop(interval time.Duration, pass PassFunc, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{Interval: interval, Pass: pass, Logger: logger}
}

// Run blocks until ctx is cancelled. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	if l.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", l.Interval)
	}

	l.Logger.Info("Poll loop started", zap.Duration("interval", l.Interval))
	l.RunOnce(ctx)

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("Poll loop stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			l.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single pass, converting a panic into an error
func (l *Loop) RunOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pass panicked: %v", r)
			l.Logger.Error("Poll pass panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
		if err != nil && ctx.Err() == nil {
			l.Logger.Error("Poll pass failed", zap.Error(err))
		}
		if l.OnResult != nil {
			l.OnResult(err)
		}
	}()

	return l.Pass(ctx)
}
