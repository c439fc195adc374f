package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// unlimited stands in for rate.Inf, whose burst handling has edge cases.
const unlimited = 1_000_000_000

// RateLimiter is a token bucket limiter.
//
// Tokens are added at a constant rate; each request consumes one. Burst is
// the bucket capacity, so short spikes above the sustained rate are served.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter.
//
// requestsPerSecond = 0 disables limiting. burst = 0 uses requestsPerSecond
// as the bucket size.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		requestsPerSecond = unlimited
		burst = unlimited
	}
	if burst == 0 {
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

type client struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// KeyedLimiter keeps one RateLimiter per key (client address, session id).
//
// Buckets idle for longer than the idle TTL are dropped on the next Allow
// that runs a sweep, so the map does not grow with every client ever seen.
//
// Thread safety:
// All methods are safe for concurrent use.
type KeyedLimiter struct {
	requestsPerSecond uint
	burst             uint
	idleTTL           time.Duration
	now               func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

// NewKeyed creates a KeyedLimiter giving every key its own bucket.
// idleTTL = 0 defaults to 10 minutes.
func NewKeyed(requestsPerSecond, burst uint, idleTTL time.Duration) *KeyedLimiter {
	if idleTTL == 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyedLimiter{
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
		idleTTL:           idleTTL,
		now:               time.Now,
		clients:           make(map[string]*client),
		lastSweep:         time.Now(),
	}
}

// Allow reports whether a request for key may proceed now.
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	now := k.now()
	c, ok := k.clients[key]
	if !ok {
		c = &client{limiter: New(k.requestsPerSecond, k.burst)}
		k.clients[key] = c
	}
	c.lastSeen = now
	if now.Sub(k.lastSweep) >= k.idleTTL {
		k.sweep(now)
	}
	k.mu.Unlock()

	return c.limiter.Allow()
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.clients)
}

// sweep drops idle buckets. Caller holds k.mu.
func (k *KeyedLimiter) sweep(now time.Time) {
	for key, c := range k.clients {
		if now.Sub(c.lastSeen) > k.idleTTL {
			delete(k.clients, key)
		}
	}
	k.lastSweep = now
}
