// File: internal/handlers/log_handler.go
package handlers

import (
	"net/http"
	"strings"
)

// FrontendLogPayload defines the structure for logs coming from the browser.
type FrontendLogPayload struct {
	Level   string `json:"level"`             // e.g., "info", "error", "warn"
	Message string `json:"message"`           // The main log message
	Context any    `json:"context,omitempty"` // Optional extra data (e.g., stack trace)
}

type LogHandler struct {
	Logger Logger
}

func NewLogHandler(logger Logger) *LogHandler {
	return &LogHandler{Logger: logger}
}

// LogFrontendEvent forwards a browser log entry into the server log.
func (h *LogHandler) LogFrontendEvent(w http.ResponseWriter, r *http.Request) {
	var payload FrontendLogPayload
	if err := decodeJSON(w, r, &payload); err != nil || payload.Message == "" {
		writeError(w, "Invalid request body", "INVALID_REQUEST", http.StatusBadRequest)
		return
	}

	kv := []interface{}{"source", "client", "message", payload.Message}
	if payload.Context != nil {
		kv = append(kv, "context", payload.Context)
	}
	switch strings.ToLower(payload.Level) {
	case "error":
		h.Logger.Error("CLIENT_LOG", kv...)
	case "warn", "warning":
		h.Logger.Warn("CLIENT_LOG", kv...)
	case "debug":
		h.Logger.Debug("CLIENT_LOG", kv...)
	default:
		h.Logger.Info("CLIENT_LOG", kv...)
	}

	w.WriteHeader(http.StatusNoContent)
}
