package api

import (
	"sync"
	"time"
)

// rateLimiter is a token-bucket admission controller keyed by client
// identity (normally the source IP). Each key owns a bucket holding up to
// capacity tokens that refill continuously at capacity/60 tokens per
// second; every admitted request consumes one token.
//
// Entries are created lazily on a client's first request and never
// evicted, so the map grows with the number of distinct clients over the
// process lifetime. That matches the limiter's intended deployment (a
// small dashboard) and is a documented limitation, not an oversight.
type rateLimiter struct {
	mu       sync.Mutex
	capacity float64
	rate     float64 // tokens per second
	entries  map[string]*bucketEntry

	// now is injectable for deterministic refill tests.
	now func() time.Time
}

type bucketEntry struct {
	tokens     float64
	lastRefill time.Time
}

// newRateLimiter creates a limiter admitting rpm requests per minute per
// client key.
func newRateLimiter(rpm int) *rateLimiter {
	return &rateLimiter{
		capacity: float64(rpm),
		rate:     float64(rpm) / 60.0,
		entries:  make(map[string]*bucketEntry),
		now:      time.Now,
	}
}

// allow runs one admission check for the given client key. When denied,
// retryAfter is the suggested wait until a full token is available.
// The read-modify-write on the entry happens under the lock, so concurrent
// requests from the same client cannot double-spend a token.
func (rl *rateLimiter) allow(key string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, found := rl.entries[key]
	if !found {
		entry = &bucketEntry{tokens: rl.capacity, lastRefill: now}
		rl.entries[key] = entry
	}

	if elapsed := now.Sub(entry.lastRefill).Seconds(); elapsed > 0 {
		entry.tokens = min(rl.capacity, entry.tokens+elapsed*rl.rate)
		entry.lastRefill = now
	}

	if entry.tokens < 1 {
		wait := (1 - entry.tokens) / rl.rate
		return false, time.Duration(wait * float64(time.Second))
	}
	entry.tokens--
	return true, 0
}
