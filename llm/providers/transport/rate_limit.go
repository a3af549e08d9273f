package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket rate limiter.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a new rate limiter with the specified requests per second and burst capacity
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until the request can proceed
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow returns true if the request can proceed immediately
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
