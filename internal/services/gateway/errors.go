// File: internal/services/gateway/errors.go
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

type ErrorType string

const (
	ErrTypeConfig    ErrorType = "CONFIG"
	ErrTypeNetwork   ErrorType = "NETWORK"
	ErrTypeProvider  ErrorType = "PROVIDER"
	ErrTypeRateLimit ErrorType = "RATE_LIMIT"
	ErrTypeProtocol  ErrorType = "PROTOCOL"
)

type GatewayError struct {
	Type      ErrorType
	Code      int // upstream HTTP status, 0 when none was received
	Message   string
	Model     string
	Operation string
	Cause     error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gateway %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("gateway %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *GatewayError {
	return &GatewayError{Type: ErrTypeConfig, Message: msg, Operation: "config"}
}

// IsRateLimited reports whether err is an upstream rate-limit rejection.
func IsRateLimited(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Type == ErrTypeRateLimit
}

// classify turns a go-openai or transport error into a GatewayError.
func classify(operation, model, msg string, err error) *GatewayError {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}

	out := &GatewayError{Type: ErrTypeProvider, Operation: operation, Model: model, Message: msg, Cause: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr):
		out.Code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		out.Code = reqErr.HTTPStatusCode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		out.Type = ErrTypeNetwork
	}
	if out.Code == http.StatusTooManyRequests {
		out.Type = ErrTypeRateLimit
	}
	return out
}

func statusError(operation string, code int, body string) *GatewayError {
	t := ErrTypeProvider
	if code == http.StatusTooManyRequests {
		t = ErrTypeRateLimit
	}
	return &GatewayError{
		Type:      t,
		Code:      code,
		Operation: operation,
		Message:   fmt.Sprintf("unexpected status %d: %s", code, body),
	}
}
