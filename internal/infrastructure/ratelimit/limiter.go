package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter bounds outbound generation requests to maxRequests per trailing
// window. A single instance is shared by every conversation; Acquire
// serializes admission through one mutex.
//
// Callers that Acquire sequentially are admitted FIFO. Concurrent callers
// have no defined relative ordering: whichever waiter the runtime wakes
// first wins the freed slot.
type Limiter struct {
	maxRequests int
	window      time.Duration

	mu         sync.Mutex
	timestamps []time.Time

	now func() time.Time
}

// New creates a limiter admitting maxRequests per window.
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Acquire blocks until issuing a request would not exceed the quota, then
// records the request timestamp. It returns early with the context error if
// ctx is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.timestamps) < l.maxRequests {
			l.timestamps = append(l.timestamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.window - now.Sub(l.timestamps[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Pending reports how many request timestamps currently count against the
// window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.timestamps)
}

// prune drops timestamps that have aged out of the trailing window. Callers
// must hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := 0
	for cutoff < len(l.timestamps) && now.Sub(l.timestamps[cutoff]) >= l.window {
		cutoff++
	}
	if cutoff > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[cutoff:]...)
	}
}
