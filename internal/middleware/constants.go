// File: internal/middleware/constants.go
package middleware

// Context keys for middleware communication
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	SubjectKey   contextKey = "subject"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Logger defines the logging interface used by middleware.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
