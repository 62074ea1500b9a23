// Package ratelimit paces requests to the Microsoft Graph API.
//
// TokenBucket wraps golang.org/x/time/rate so that a backup of a long chat
// history stays under the service's throttling thresholds. Unlimited is used
// when pacing is disabled in the configuration.
//
// Usage:
//
//	limiter := ratelimit.NewTokenBucket(120, 10)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// Proceed with request
package ratelimit
