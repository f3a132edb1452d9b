package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// DefaultInterval keeps a sequential caller at or below 100 requests per minute.
const DefaultInterval = 600 * time.Millisecond

// Waiter is implemented by anything that can pause a caller before its next operation.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Limiter suspends every caller for a fixed interval, with optional jitter.
// Unlike a ticker, the pause is measured from the moment Wait is called, so a
// slow operation between two Waits never shortens the next pause.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
}

// NewLimiter creates a new limiter that pauses for interval on every Wait.
// Jitter must be between 0.0 and 1.0 and only ever lengthens the pause.
// If interval is <= 0, the limiter does not block.
func NewLimiter(interval time.Duration, jitter float64) *Limiter {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return &Limiter{
		interval: interval,
		jitter:   jitter,
	}
}

// Interval returns the base pause applied by Wait.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks for the configured interval, or until the context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := l.next()
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) next() time.Duration {
	if l.interval <= 0 {
		return 0
	}
	if l.jitter == 0 {
		return l.interval
	}
	// Extra time in [0, jitter*interval); the base interval is a floor.
	return l.interval + time.Duration(rand.Float64()*l.jitter*float64(l.interval))
}
