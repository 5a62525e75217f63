package app

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	metrics   *Metrics
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows cfg.Requests per cfg.Window for each IP.
func NewRateLimiter(cfg RateLimitConfig, metrics *Metrics) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:     cfg.Requests,
		window:    cfg.Window,
		lastSweep: time.Now(),
		metrics:   metrics,
	}
}

// Allow consumes one request for ip.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.window {
		rl.sweep(now)
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep forgets clients idle for a whole window; their buckets are full again
// by then anyway.
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.window {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = now
}

// Limit wraps next with the per-IP limit.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			rl.metrics.RateLimited.Inc()
			http.Error(w, MsgTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
