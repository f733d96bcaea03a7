package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is the in-process counterpart of the redis limiter.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[int64]int
	start  time.Time
	now    func() time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		limit:  perMinute,
		window: time.Minute,
		counts: make(map[int64]int),
		now:    time.Now,
	}
}

func (l *RateLimiter) Allow(_ context.Context, chatID int64) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.start) >= l.window {
		l.start = now
		clear(l.counts)
	}
	l.counts[chatID]++
	return l.counts[chatID] <= l.limit, nil
}
