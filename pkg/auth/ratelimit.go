package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter checks whether a request should be allowed for the identity.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// InProcessLimiter is a fixed-window rate limiter that tracks request
// counts per account in memory.
type InProcessLimiter struct {
	rpm      int
	window   time.Duration
	now      func() time.Time
	mu       sync.Mutex
	counters map[string]*counter
}

// sweepThreshold is the number of tracked accounts above which expired
// counters are dropped.
const sweepThreshold = 1024

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter creates a rate limiter allowing requestsPerMinute
// requests per account. A non-positive value disables limiting.
func NewInProcessLimiter(requestsPerMinute int) *InProcessLimiter {
	return &InProcessLimiter{
		rpm:      requestsPerMinute,
		window:   time.Minute,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

// Allow checks if the request is within the rate limit.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	if l.rpm <= 0 {
		return nil // no limit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[identity.AccountID]
	if !ok || now.Sub(c.windowAt) >= l.window {
		l.counters[identity.AccountID] = &counter{count: 1, windowAt: now}
		if len(l.counters) > sweepThreshold {
			l.sweep(now)
		}
		return nil
	}

	c.count++
	if c.count > l.rpm {
		return ErrTooManyRequests
	}

	return nil
}

// sweep drops counters whose window has elapsed. Must be called with l.mu held.
func (l *InProcessLimiter) sweep(now time.Time) {
	for key, c := range l.counters {
		if now.Sub(c.windowAt) >= l.window {
			delete(l.counters, key)
		}
	}
}
