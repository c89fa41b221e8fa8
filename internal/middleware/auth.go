// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iyunix/go-relay/internal/auth"
)

// NewJWTMiddleware requires a valid bearer token signed with secretKey. An
// empty key disables the check.
func NewJWTMiddleware(secretKey []byte, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(secretKey) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeJSONError(w, http.StatusUnauthorized, "Missing bearer token", "UNAUTHORIZED")
				return
			}

			subject, err := auth.ValidateToken(strings.TrimSpace(token), secretKey)
			if err != nil {
				logger.Warn("invalid token", "request_id", GetRequestID(r.Context()), "error", err)
				writeJSONError(w, http.StatusUnauthorized, "Invalid token", "UNAUTHORIZED")
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
