package infra

import (
	"sync"
	"time"
)

// RateLimiter is a token-bucket limiter for REST calls.
// Thread-safe and suitable for concurrent monitors sharing one client.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a limiter with the given burst size and refill
// rate in requests per second.
func NewRateLimiter(maxRequests int, perSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     float64(maxRequests),
		maxTokens:  float64(maxRequests),
		refillRate: perSecond,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()

	for r.tokens < 1 {
		wait := time.Duration(float64(time.Second) / r.refillRate)
		r.mu.Unlock()
		time.Sleep(wait)
		r.mu.Lock()
		r.refill()
	}

	r.tokens--
}

// TryAcquire attempts to take a token without blocking.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// refill adds tokens based on elapsed time. Caller holds the mutex.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate

	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	r.lastRefill = now
}

// Binance futures REST limits are weight-based; these buckets stay well
// under the documented 2400 weight/min to avoid IP bans.
var (
	orderLimiter  *RateLimiter
	queryLimiter  *RateLimiter
	marketLimiter *RateLimiter
	limiterOnce   sync.Once
)

// OrderLimiter returns the shared limiter for order placement/cancel.
func OrderLimiter() *RateLimiter {
	limiterOnce.Do(initLimiters)
	return orderLimiter
}

// QueryLimiter returns the shared limiter for signed query endpoints.
func QueryLimiter() *RateLimiter {
	limiterOnce.Do(initLimiters)
	return queryLimiter
}

// MarketLimiter returns the shared limiter for public market data.
func MarketLimiter() *RateLimiter {
	limiterOnce.Do(initLimiters)
	return marketLimiter
}

func initLimiters() {
	orderLimiter = NewRateLimiter(5, 10)
	queryLimiter = NewRateLimiter(5, 10)
	marketLimiter = NewRateLimiter(10, 20)
}
