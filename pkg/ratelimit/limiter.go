package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests
type Limiter interface {
	// Wait blocks until the limiter allows another request or ctx is done
	Wait(ctx context.Context) error
	// Allow reports whether a request may proceed right now
	Allow() bool
}

// TokenBucket is a Limiter backed by x/time/rate
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows requestsPerMinute requests per minute with bursts of
// up to burst requests. A non-positive rate returns an Unlimited limiter.
func NewTokenBucket(requestsPerMinute, burst int) Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited{}
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

// Unlimited never delays a request
type Unlimited struct{}

// Wait returns immediately unless ctx is already done
func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}

func (Unlimited) Allow() bool { return true }
