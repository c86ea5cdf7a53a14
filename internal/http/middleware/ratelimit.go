package middleware

import (
	"net/http"
	"sync"
	"time"
)

const (
	// visitorSweepInterval and visitorIdleAfter bound the memory spent on
	// one-off widget visitors.
	visitorSweepInterval = 5 * time.Minute
	visitorIdleAfter     = 10 * time.Minute
)

// RateLimiter throttles the widget's HTTP chat fallback with a token bucket
// per client IP. WebSocket traffic is not routed through it.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	refill   float64 // tokens added per second
	capacity float64 // bucket size, i.e. the tolerated burst
}

type visitor struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests per second with the given burst per IP.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		refill:   rate,
		capacity: float64(burst),
	}
	go rl.sweep()
	return rl
}

// Allow reports whether a request from ip may proceed, spending one token.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{tokens: rl.capacity, seen: now}
		rl.visitors[ip] = v
	}

	v.tokens += now.Sub(v.seen).Seconds() * rl.refill
	if v.tokens > rl.capacity {
		v.tokens = rl.capacity
	}
	v.seen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

// sweep drops visitors that have gone quiet, so the map cannot grow without
// bound under session churn.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(visitorSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-visitorIdleAfter)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if v.seen.Before(cutoff) {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects requests beyond the configured rate with 429. The chat
// fallback posts one message per request, so rate reads as messages per
// second per visitor.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the address resolved by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
