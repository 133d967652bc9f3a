// Package security contains request guardrails for the sentinel's HTTP
// surface.
package security

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sentinelops/aws-log-sentinel/internal/config"
)

// RateLimiter enforces a per-client-IP request rate
type RateLimiter struct {
	cfg      config.RateLimitConfig
	mu       sync.RWMutex
	limiters map[string]*clientLimiter
}

// clientLimiter pairs a token bucket with its last-use time for cleanup
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter from configuration
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:      cfg,
		limiters: make(map[string]*clientLimiter),
	}
}

// Allow reports whether a request from the given client IP may proceed
func (r *RateLimiter) Allow(clientIP string) bool {
	if !r.cfg.Enabled {
		return true
	}
	return r.getLimiter(clientIP).Allow()
}

// getLimiter gets or creates the token bucket for a client IP
func (r *RateLimiter) getLimiter(clientIP string) *rate.Limiter {
	r.mu.RLock()
	cl, exists := r.limiters[clientIP]
	r.mu.RUnlock()

	if exists {
		r.mu.Lock()
		cl.lastSeen = time.Now()
		r.mu.Unlock()
		return cl.limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock
	if cl, exists := r.limiters[clientIP]; exists {
		cl.lastSeen = time.Now()
		return cl.limiter
	}

	burst := r.cfg.Burst
	if burst < 1 {
		burst = 1
	}

	cl = &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(float64(r.cfg.RequestsPerMin)/60.0), burst),
		lastSeen: time.Now(),
	}
	r.limiters[clientIP] = cl
	return cl.limiter
}

// CleanupIdle removes buckets unused for longer than maxIdle to bound
// memory on long-running processes
func (r *RateLimiter) CleanupIdle(maxIdle time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for ip, cl := range r.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(r.limiters, ip)
		}
	}
}

// StartCleanupRoutine starts a background routine that periodically removes
// idle buckets
func (r *RateLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			r.CleanupIdle(time.Hour)
		}
	}()
}
