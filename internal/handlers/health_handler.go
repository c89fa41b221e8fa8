// File: internal/handlers/health_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/iyunix/go-relay/internal/services/chat"
)

// StatusReporter reports whether the thread store accepts writes.
type StatusReporter interface {
	Status() chat.ServiceStatus
}

type HealthHandler struct {
	Status StatusReporter
	now    func() time.Time
}

func NewHealthHandler(status StatusReporter) *HealthHandler {
	return &HealthHandler{Status: status, now: time.Now}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.Status.Status()
	body := map[string]string{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"store":     "ok",
	}
	code := http.StatusOK
	if !status.IsHealthy {
		body["status"] = "DEGRADED"
		body["store"] = status.Message
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, body)
}
