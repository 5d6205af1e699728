// Package ratelimit throttles outgoing API requests.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a name for logging. A nil *Limiter
// never throttles.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a limiter allowing requestsPerSecond, with an equal burst.
func New(name string, requestsPerSecond int) *Limiter {
	return NewWithBurst(name, requestsPerSecond, requestsPerSecond)
}

// NewWithBurst creates a limiter with a custom burst size.
func NewWithBurst(name string, requestsPerSecond, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		name:    name,
	}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}

// Name returns the name of this rate limiter.
func (l *Limiter) Name() string {
	if l == nil {
		return "unlimited"
	}
	return l.name
}
