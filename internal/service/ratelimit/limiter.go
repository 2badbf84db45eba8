package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

// New creates a keyed limiter. rps <= 0 disables limiting.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	lim := rate.Limit(rps)
	if rps <= 0 {
		lim = rate.Inf
	}
	return &Limiter{m: make(map[string]*rate.Limiter), rps: lim, burst: burst}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.m[key]
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
		l.m[key] = b
	}
	return b
}

// Allow reports whether one token can be consumed for key right now.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Wait blocks until a token for key is available or ctx ends.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}
