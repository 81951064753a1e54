package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Bucket is the process-wide request budget shared by every concurrent
// fetch. It is an explicit object passed by reference rather than a hidden
// singleton so tests can inject a deterministic budget.
type Bucket struct {
	limiter *rate.Limiter

	mu        sync.Mutex
	deferral  time.Time
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewBucket sizes the budget from the source's published per-minute quota.
func NewBucket(requestsPerMinute, burst int) *Bucket {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &Bucket{
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst),
		sleepFunc: sleepCtx,
	}
}

// Wait blocks until a request token is available. Requests exceeding the
// budget suspend until the window refreshes rather than fail; the only
// error cause is context cancellation.
func (b *Bucket) Wait(ctx context.Context) error {
	b.mu.Lock()
	until := b.deferral
	sleep := b.sleepFunc
	b.mu.Unlock()

	if wait := time.Until(until); wait > 0 {
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	return b.limiter.Wait(ctx)
}

// Observe records the source's advisory rate-limit headers. A depleted
// remaining budget defers every caller until the reported reset.
func (b *Bucket) Observe(remaining, resetSeconds int) {
	if remaining > 0 || resetSeconds <= 0 {
		return
	}

	until := time.Now().Add(time.Duration(resetSeconds) * time.Second)

	b.mu.Lock()
	if until.After(b.deferral) {
		b.deferral = until
	}
	b.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
