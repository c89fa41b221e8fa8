// File: internal/middleware/recovery.go
package middleware

import (
	"net/http"
	"runtime/debug"
)

func RecoverPanic(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"request_id", GetRequestID(r.Context()),
						"path", r.URL.Path,
						"panic", err,
						"stack", string(debug.Stack()),
					)
					// a started stream can only be cut off
					if rec.Written() {
						return
					}
					w.Header().Set("Connection", "close")
					writeJSONError(w, http.StatusInternalServerError, "Something went wrong on our end.", "INTERNAL_ERROR")
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
