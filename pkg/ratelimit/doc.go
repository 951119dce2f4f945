// Package ratelimit provides request spacing and rate limiting for the
// scraper.
//
// This package implements two rate limiting primitives to prevent
// overwhelming the platform's servers and avoid getting blocked.
//
// Available Implementations:
//
// Interval Gate:
//   - Enforces a minimum spacing between consecutive requests
//   - Shared by all workers so the spacing holds process-wide
//   - Context-aware, so a cancelled caller releases its slot
//   - Default implementation used by the download pipeline
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//
// Usage:
//
//	// Space requests at least 500ms apart
//	gate := ratelimit.NewIntervalGate(500 * time.Millisecond)
//
//	if err := gate.Acquire(ctx); err != nil {
//	    return err // context cancelled while waiting
//	}
//	// Proceed with request
//
//	// Token bucket: 50 requests per hour
//	limiter := ratelimit.NewTokenBucket(50, time.Hour)
//	if limiter.Allow() {
//	    // Proceed with request
//	}
package ratelimit
