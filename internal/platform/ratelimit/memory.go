package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding log of request times per key. State lives in
// process memory and is lost on restart.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string][]time.Time
}

type MemoryOption func(*MemoryLimiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

func NewMemory(limit int, window time.Duration, opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: map[string][]time.Time{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	if l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.clients[key]
	kept := hits[:0]
	for _, at := range hits {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	decision := Decision{Limit: l.limit}
	if len(kept) < l.limit {
		kept = append(kept, now)
		decision.Allowed = true
	}
	decision.Remaining = max(l.limit-len(kept), 0)
	decision.ResetAfter = kept[0].Add(l.window).Sub(now)

	l.clients[key] = kept
	return decision, nil
}

// Sweep drops keys whose requests have all left the window.
func (l *MemoryLimiter) Sweep() {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, hits := range l.clients {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.clients, key)
		}
	}
}

func (l *MemoryLimiter) keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
