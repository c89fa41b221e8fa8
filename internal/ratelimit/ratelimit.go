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

// Config holds rate limiting configuration
type Config struct {
	RequestsPerSecond float64       // Sustained rate per client
	Burst             int           // Requests a client may make at once
	IdleTTL           time.Duration // Forget clients idle this long
	CleanupPeriod     time.Duration // How often to clean up old entries
}

// DefaultChatConfig returns defaults for the chat endpoint.
func DefaultChatConfig() *Config {
	return &Config{
		RequestsPerSecond: 2,
		Burst:             5,
		IdleTTL:           10 * time.Minute,
		CleanupPeriod:     5 * time.Minute,
	}
}

type clientRecord struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps one token bucket per client identifier.
type ClientLimiter struct {
	config  *Config
	clients map[string]*clientRecord
	mu      sync.Mutex
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// NewClientLimiter creates a limiter and starts its idle-client sweep.
func NewClientLimiter(config *Config) *ClientLimiter {
	rl := &ClientLimiter{
		config:  config,
		clients: make(map[string]*clientRecord),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if config.CleanupPeriod > 0 {
		go rl.cleanupLoop()
	}
	return rl
}

// RateLimitInfo contains information about rate limit status
type RateLimitInfo struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Allow checks if a request should be allowed
func (rl *ClientLimiter) Allow(identifier string) (bool, *RateLimitInfo) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	record, ok := rl.clients[identifier]
	if !ok {
		record = &clientRecord{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
		rl.clients[identifier] = record
	}
	record.lastSeen = now

	info := &RateLimitInfo{Limit: rl.config.Burst}
	res := record.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, info
	}
	if delay := res.DelayFrom(now); delay > 0 {
		// not admitted: hand the token back so a rejected request costs nothing
		res.CancelAt(now)
		info.RetryAfter = delay
		return false, info
	}

	info.Allowed = true
	info.Remaining = int(math.Max(0, math.Floor(record.limiter.TokensAt(now))))
	return true, info
}

// Clients returns how many identifiers are currently tracked.
func (rl *ClientLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// cleanupLoop periodically removes old records
func (rl *ClientLimiter) cleanupLoop() {
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

// cleanup removes clients that have been idle longer than IdleTTL
func (rl *ClientLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for identifier, record := range rl.clients {
		if now.Sub(record.lastSeen) > rl.config.IdleTTL {
			delete(rl.clients, identifier)
		}
	}
}

// Close stops the cleanup goroutine
func (rl *ClientLimiter) Close() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
	// Check for forwarded IP (behind proxy/load balancer)
	if ip := parseFirstIP(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip
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

// parseFirstIP extracts the first entry from a comma-separated list
func parseFirstIP(forwarded string) string {
	if forwarded == "" {
		return ""
	}
	first, _, _ := strings.Cut(forwarded, ",")
	return strings.TrimSpace(first)
}
