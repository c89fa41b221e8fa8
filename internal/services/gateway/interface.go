// File: internal/services/gateway/interface.go
package gateway

import (
	"context"

	"github.com/iyunix/go-relay/internal/domain"
)

// Message is one entry of the ordered conversation sent upstream.
type Message struct {
	Role    domain.Role
	Content string
}

// CompletionRequest asks the gateway to stream a reply from Model.
type CompletionRequest struct {
	Model    string
	Messages []Message
}

// EventStream yields response events in emission order. Recv returns
// io.EOF once the upstream finished cleanly. Close releases the upstream
// connection and is safe to call more than once.
type EventStream interface {
	Recv() (domain.StreamEvent, error)
	Close() error
}

// ModelLister fetches the gateway's current model directory.
type ModelLister interface {
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
}

// CompletionStreamer opens streamed completions.
type CompletionStreamer interface {
	StreamCompletion(ctx context.Context, req CompletionRequest) (EventStream, error)
}

// Provider combines directory and completion capabilities.
type Provider interface {
	ModelLister
	CompletionStreamer
}
