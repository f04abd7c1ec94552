// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds token bucket settings shared by every client.
type Config struct {
	RPS           float64       // sustained requests per second
	Burst         int           // bucket size
	IdleTTL       time.Duration // drop a client's bucket after this long unused
	CleanupPeriod time.Duration // how often idle buckets are swept
}

// DefaultChatConfig suits the chat endpoints, where every request may call a paid API.
func DefaultChatConfig() *Config {
	return &Config{
		RPS:           1,
		Burst:         5,
		IdleTTL:       10 * time.Minute,
		CleanupPeriod: 5 * time.Minute,
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryRateLimiter keeps one token bucket per identifier in memory.
type MemoryRateLimiter struct {
	config  *Config
	buckets map[string]*bucket
	mu      sync.Mutex
	stopCh  chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewMemoryRateLimiter creates a limiter and starts its cleanup goroutine.
func NewMemoryRateLimiter(cfg *Config) *MemoryRateLimiter {
	config := &Config{}
	if cfg != nil {
		*config = *cfg
	}
	if config.RPS <= 0 {
		config.RPS = 1
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.CleanupPeriod <= 0 {
		config.CleanupPeriod = config.IdleTTL
	}
	limiter := &MemoryRateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	go limiter.cleanupLoop()

	return limiter
}

// RateLimitInfo contains information about rate limit status
type RateLimitInfo struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Allow takes one token for identifier if available.
func (rl *MemoryRateLimiter) Allow(identifier string) (bool, *RateLimitInfo) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[identifier]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.config.RPS), rl.config.Burst)}
		rl.buckets[identifier] = b
	}
	b.lastSeen = now

	info := &RateLimitInfo{Limit: rl.config.Burst}
	if b.limiter.AllowN(now, 1) {
		info.Allowed = true
		info.Remaining = int(math.Max(0, math.Floor(b.limiter.TokensAt(now))))
		return true, info
	}

	// time until one token is back
	missing := 1 - b.limiter.TokensAt(now)
	info.RetryAfter = time.Duration(missing / rl.config.RPS * float64(time.Second))
	if info.RetryAfter < time.Second {
		info.RetryAfter = time.Second
	}
	return false, info
}

// cleanupLoop periodically removes idle buckets
func (rl *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for identifier, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.config.IdleTTL {
			delete(rl.buckets, identifier)
		}
	}
}

// Size is the number of tracked identifiers.
func (rl *MemoryRateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Close stops the cleanup goroutine
func (rl *MemoryRateLimiter) Close() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
	// Check for forwarded IP (behind proxy/load balancer)
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := parseFirstIP(forwarded); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// parseFirstIP extracts the first IP from a comma-separated list
func parseFirstIP(forwarded string) string {
	first, _, _ := strings.Cut(forwarded, ",")
	return strings.TrimSpace(first)
}
