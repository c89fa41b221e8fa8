// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iyunix/go-relay/internal/repository/thread"
	"github.com/iyunix/go-relay/internal/services/gateway"
	"github.com/iyunix/go-relay/internal/services/models"
)

type ErrorType string

const (
	ErrTypeNotFound           ErrorType = "NOT_FOUND"
	ErrTypeInvalidRequest     ErrorType = "INVALID_REQUEST"
	ErrTypeNoModels           ErrorType = "NO_MODELS_AVAILABLE"
	ErrTypeModelService       ErrorType = "MODEL_SERVICE_ERROR"
	ErrTypeRateLimit          ErrorType = "RATE_LIMIT"
	ErrTypeUpstream           ErrorType = "UPSTREAM_ERROR"
	ErrTypeStorageUnavailable ErrorType = "STORAGE_UNAVAILABLE"
)

type ChatError struct {
	Type      ErrorType
	Operation string
	Message   string
	// Details is a short diagnostic safe to show to clients.
	Details  string
	ThreadID string
	Cause    error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chat %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error { return e.Cause }

// HTTPStatus maps the error type onto the status code clients receive.
func (e *ChatError) HTTPStatus() int {
	switch e.Type {
	case ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeInvalidRequest, ErrTypeNoModels:
		return http.StatusBadRequest
	case ErrTypeModelService:
		return http.StatusServiceUnavailable
	case ErrTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrTypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NewInvalidRequestError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeInvalidRequest, Operation: operation, Message: msg}
}

func NewNotFoundError(operation, threadID string) *ChatError {
	return &ChatError{
		Type:      ErrTypeNotFound,
		Operation: operation,
		Message:   "thread not found",
		ThreadID:  threadID,
	}
}

// AsChatError returns err as a ChatError, wrapping unknown errors as
// storage failures.
func AsChatError(err error) *ChatError {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr
	}
	return &ChatError{Type: ErrTypeStorageUnavailable, Operation: "unknown", Message: "internal error", Cause: err}
}

// storeError translates a thread repository failure.
func storeError(operation, threadID string, err error) *ChatError {
	switch {
	case errors.Is(err, thread.ErrThreadNotFound):
		return NewNotFoundError(operation, threadID)
	case errors.Is(err, thread.ErrInvalidMessage):
		return &ChatError{Type: ErrTypeInvalidRequest, Operation: operation, Message: "invalid message", Details: err.Error(), ThreadID: threadID, Cause: err}
	default:
		return &ChatError{
			Type:      ErrTypeStorageUnavailable,
			Operation: operation,
			Message:   "thread storage unavailable",
			ThreadID:  threadID,
			Cause:     err,
		}
	}
}

// directoryError translates a model directory or resolver failure.
func directoryError(operation string, err error) *ChatError {
	if errors.Is(err, models.ErrNoModelsAvailable) {
		return &ChatError{Type: ErrTypeNoModels, Operation: operation, Message: "no models available", Cause: err}
	}
	return &ChatError{
		Type:      ErrTypeModelService,
		Operation: operation,
		Message:   "model service unavailable",
		Details:   gatewayDetails(err),
		Cause:     err,
	}
}

// upstreamError translates a gateway streaming failure.
func upstreamError(operation, threadID string, err error) *ChatError {
	t := ErrTypeUpstream
	if gateway.IsRateLimited(err) {
		t = ErrTypeRateLimit
	}
	msg := "model gateway error"
	if t == ErrTypeRateLimit {
		msg = "rate limited by model gateway"
	}
	return &ChatError{Type: t, Operation: operation, Message: msg, Details: gatewayDetails(err), ThreadID: threadID, Cause: err}
}

func gatewayDetails(err error) string {
	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.Code != 0 {
			return fmt.Sprintf("%s (status %d)", gwErr.Type, gwErr.Code)
		}
		return string(gwErr.Type)
	}
	return ""
}
