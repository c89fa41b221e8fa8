// File: internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/iyunix/go-relay/internal/services/chat"
)

// Logger defines the logging interface used by handlers.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// maxBodyBytes caps request bodies; chat turns carry one message.
const maxBodyBytes = 1 << 20

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message, code string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeChatError maps a service error onto its status code and body.
func writeChatError(w http.ResponseWriter, err error) {
	chatErr := chat.AsChatError(err)
	writeJSON(w, chatErr.HTTPStatus(), ErrorResponse{
		Error:   chatErr.Message,
		Code:    string(chatErr.Type),
		Details: chatErr.Details,
	})
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a JSON body into dst, rejecting oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		return errors.New("malformed JSON body")
	}
	return nil
}
