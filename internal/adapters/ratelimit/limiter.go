// Package ratelimit implements a fixed-window request limiter on Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one limiter check
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Limiter counts requests per client in fixed windows
type Limiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// minWindow is the smallest window; buckets are counted in whole seconds
const minWindow = time.Second

// NewLimiter creates a limiter allowing limit requests per window. A
// non-positive window defaults to a minute and shorter windows are raised
// to one second.
func NewLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *Limiter {
	switch {
	case window <= 0:
		window = time.Minute
	case window < minWindow:
		window = minWindow
	}
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// WithNow overrides the clock
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Key returns the counter key for a client at time t
func (l *Limiter) Key(clientID string, t time.Time) string {
	bucket := t.Unix() / int64(l.window.Seconds())
	return fmt.Sprintf("%sratelimit:%s:%d", l.prefix, clientID, bucket)
}

// Allow counts one request for clientID and reports whether it is within
// the limit. A non-positive limit disables the check.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Result, error) {
	now := l.now()
	windowSecs := int64(l.window.Seconds())
	reset := time.Unix((now.Unix()/windowSecs+1)*windowSecs, 0)

	if l.limit <= 0 {
		return Result{Allowed: true, Limit: l.limit, Remaining: 0, ResetAt: reset}, nil
	}

	key := l.Key(clientID, now)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to update rate limit counter: %w", err)
	}

	count := incr.Val()
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   reset,
	}, nil
}
