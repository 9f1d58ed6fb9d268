package middleware

import (
	"net/http"
	"sync"
	"time"
)

// visitor tracks the token bucket for one client IP.
type visitor struct {
	tokens float64
	seen   time.Time
}

// RateLimiter enforces a per-IP token bucket. Buckets refill at rate tokens
// per second up to burst; idle entries are evicted so the map stays bounded.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     float64
	burst    float64
}

func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		burst:    float64(burst),
	}
	go rl.evictLoop(5*time.Minute, 10*time.Minute)
	return rl
}

// Allow reports whether a request from ip fits within the limit and spends
// one token when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{tokens: rl.burst, seen: now}
		rl.visitors[ip] = v
	}

	v.tokens += now.Sub(v.seen).Seconds() * rl.rate
	if v.tokens > rl.burst {
		v.tokens = rl.burst
	}
	v.seen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

func (rl *RateLimiter) evictLoop(every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-idle)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if v.seen.Before(cutoff) {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// rateLimitExempt paths carry no conversation traffic and stay reachable for
// probes and scrapes even when a client is throttled.
var rateLimitExempt = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// RateLimit rejects requests over the per-IP budget with 429. The client IP
// comes from X-Real-Ip when chi's RealIP middleware has set it.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, exempt := rateLimitExempt[r.URL.Path]; exempt {
				next.ServeHTTP(w, r)
				return
			}
			ip := r.RemoteAddr
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.Allow(ip) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
