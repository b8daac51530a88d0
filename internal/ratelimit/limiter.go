// Package ratelimit throttles mutating requests per client address.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Policy is N requests per window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Enabled reports whether the policy limits anything.
func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// sweepEvery is how many Allow calls pass between expired-window sweeps.
const sweepEvery = 1024

// MemoryLimiter counts requests per key in fixed windows, the same scheme the
// Redis script uses: the first request opens a window of Policy.Window and at
// most Policy.Limit requests are admitted until it ends.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	calls   int
	windows map[string]*window
}

type window struct {
	count int
	end   time.Time
}

// NewMemory builds an in-process limiter.
func NewMemory(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:  policy,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	if !l.policy.Enabled() || key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}
	w, ok := l.windows[key]
	if !ok || !now.Before(w.end) {
		l.windows[key] = &window{count: 1, end: now.Add(l.policy.Window)}
		return true
	}
	if w.count >= l.policy.Limit {
		return false
	}
	w.count++
	return true
}

// sweep drops keys whose window has ended.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.end) {
			delete(l.windows, key)
		}
	}
}

// Len reports how many keys are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
