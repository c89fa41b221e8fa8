// File: internal/middleware/ratelimit.go
package middleware

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/iyunix/go-relay/internal/ratelimit"
)

// RateLimitMiddleware creates a rate limiting middleware keyed by client IP.
func RateLimitMiddleware(limiter *ratelimit.ClientLimiter, name string, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ratelimit.GetClientIP(r)
			allowed, info := limiter.Allow(clientIP)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))

			if !allowed {
				logger.Warn("rate limited", "limiter", name, "client", clientIP, "request_id", GetRequestID(r.Context()))
				retry := int(math.Ceil(info.RetryAfter.Seconds()))
				if retry > 0 {
					w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
				}
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMIT")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
