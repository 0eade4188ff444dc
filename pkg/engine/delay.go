package engine

import (
	"context"
	"time"
)

// Delayer suspends an analysis between checks.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

// TimerDelay waits on a timer and gives up early if ctx is done.
type TimerDelay struct{}

func (TimerDelay) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoDelay returns immediately.
type NoDelay struct{}

func (NoDelay) Delay(context.Context, time.Duration) error {
	return nil
}
