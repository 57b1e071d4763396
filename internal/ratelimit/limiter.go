package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 2 * time.Minute
)

// Limiter spaces requests to one upstream and holds back after the upstream
// reports a rate limit
type Limiter struct {
	limiter   *rate.Limiter
	name      string
	mu        sync.Mutex
	backoff   time.Duration
	penalized bool
}

// NewLimiter allows one request per interval. A non-positive interval
// disables spacing.
func NewLimiter(name string, every time.Duration) *Limiter {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		name:    name,
	}
}

// NewPerMinute allows perMinute requests per minute with a small burst
func NewPerMinute(name string, perMinute int) *Limiter {
	if perMinute <= 0 {
		return NewLimiter(name, 0)
	}
	burst := min(max(perMinute/10, 1), 5)
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		name:    name,
	}
}

// Wait blocks until a token is available or ctx is done. After
// SignalRateLimited it first sleeps the current backoff.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	pause := time.Duration(0)
	if l.penalized {
		pause = l.backoff
		l.penalized = false
	}
	l.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may happen now
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SignalRateLimited starts the backoff at one second or doubles it (up to 2
// minutes) and makes the next Wait sleep it
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backoff == 0 {
		l.backoff = initialBackoff
	} else {
		l.backoff *= 2
	}
	if l.backoff > maxBackoff {
		l.backoff = maxBackoff
	}
	l.penalized = true
}

// ResetBackoff is called after a successful request
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backoff = 0
	l.penalized = false
}

// GetBackoff returns the current backoff duration, zero when not limited
func (l *Limiter) GetBackoff() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backoff
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
