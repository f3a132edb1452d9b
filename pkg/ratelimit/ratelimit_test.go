package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_NoBlockWhenZeroInterval(t *testing.T) {
	limiter := NewLimiter(0, 0.5)

	start := time.Now()
	err := limiter.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("limiter with 0 interval should not block")
	}
}

func TestLimiter_WaitBeforeFirstCall(t *testing.T) {
	limiter := NewLimiter(100*time.Millisecond, 0)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The very first call pauses too.
	if d := time.Since(start); d < 100*time.Millisecond || d > 250*time.Millisecond {
		t.Errorf("expected wait around 100ms, took %v", d)
	}
}

func TestLimiter_SlowWorkDoesNotShortenPause(t *testing.T) {
	limiter := NewLimiter(50*time.Millisecond, 0)
	ctx := context.Background()

	_ = limiter.Wait(ctx)
	// Simulate a request that takes longer than the interval.
	time.Sleep(80 * time.Millisecond)

	start := time.Now()
	_ = limiter.Wait(ctx)
	if d := time.Since(start); d < 50*time.Millisecond {
		t.Errorf("expected a full 50ms pause after slow work, took %v", d)
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(time.Second, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := limiter.Wait(ctx)
	if err == nil {
		t.Fatalf("expected context canceled error")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Errorf("canceled wait should return promptly")
	}
}

func TestLimiter_Jitter(t *testing.T) {
	limiter := NewLimiter(100*time.Millisecond, 0.5) // +0..50ms

	start := time.Now()
	_ = limiter.Wait(context.Background())
	duration := time.Since(start)

	// Allow some slack for goroutine scheduling.
	if duration < 100*time.Millisecond || duration > 300*time.Millisecond {
		t.Errorf("expected jittered wait to be roughly between 100ms and 150ms, took %v", duration)
	}
}

func TestNewLimiter_ClampsJitter(t *testing.T) {
	if l := NewLimiter(time.Second, -1); l.jitter != 0 {
		t.Errorf("expected jitter clamped to 0, got %v", l.jitter)
	}
	if l := NewLimiter(time.Second, 3); l.jitter != 1 {
		t.Errorf("expected jitter clamped to 1, got %v", l.jitter)
	}
	if l := NewLimiter(DefaultInterval, 0); l.Interval() != 600*time.Millisecond {
		t.Errorf("expected 600ms interval, got %v", l.Interval())
	}
}
