package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	initialCooldown = 500 * time.Millisecond
	maxCooldown     = 2 * time.Minute
)

// Limiter paces requests to one upstream and holds callers back after the
// upstream reports a rate limit
type Limiter struct {
	limiter *rate.Limiter
	name    string

	mu       sync.Mutex
	cooldown time.Duration
	until    time.Time
}

// NewLimiter creates a new rate limiter
// perMinute specifies the number of requests allowed per minute
func NewLimiter(name string, perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	rps := float64(perMinute) / 60.0
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	if burst > 5 {
		burst = 5
	}

	return &Limiter{
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		name:     name,
		cooldown: initialCooldown,
	}
}

// Wait blocks until any cooldown has passed and a token is available
func (l *Limiter) Wait(ctx context.Context) error {
	if d := l.remaining(); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may go out now
func (l *Limiter) Allow() bool {
	if l.remaining() > 0 {
		return false
	}
	return l.limiter.Allow()
}

// SignalRateLimited should be called when the upstream answers 429.
// Callers are held back for the current cooldown, which then doubles.
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.until = time.Now().Add(l.cooldown)
	l.cooldown *= 2
	if l.cooldown > maxCooldown {
		l.cooldown = maxCooldown
	}
}

// ResetBackoff clears the cooldown after a successful request
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cooldown = initialCooldown
	l.until = time.Time{}
}

// GetBackoff returns the cooldown the next rate limit signal will apply
func (l *Limiter) GetBackoff() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cooldown
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}

func (l *Limiter) remaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.until.IsZero() {
		return 0
	}
	return time.Until(l.until)
}
