// File: internal/services/chat/interface.go
package chat

import (
	"context"

	"github.com/iyunix/go-relay/internal/domain"
	"github.com/iyunix/go-relay/internal/services/models"
)

// ModelDirectory provides the chat-capable model list.
type ModelDirectory interface {
	All(ctx context.Context) ([]domain.ModelInfo, error)
	ChatModels(ctx context.Context) ([]domain.ModelInfo, error)
}

// ModelResolver picks the model a turn is sent to.
type ModelResolver interface {
	Resolve(directory []domain.ModelInfo, requestedName string, webSearch bool) (models.Resolution, error)
}

// EventSink receives stream events for one client. The first successful
// Send commits the transport; after that no structured error can be
// delivered.
type EventSink interface {
	Send(ev domain.StreamEvent) error
	Committed() bool
}

// Recorder receives relay metrics.
type Recorder interface {
	TurnFinished(outcome, model string, seconds float64)
	EventRelayed(eventType string)
}

type nopRecorder struct{}

func (nopRecorder) TurnFinished(string, string, float64) {}
func (nopRecorder) EventRelayed(string)                  {}

// ThreadProvider handles thread CRUD for the HTTP layer.
type ThreadProvider interface {
	ListThreads(ctx context.Context) ([]*domain.Thread, error)
	GetThread(ctx context.Context, id string) (*domain.Thread, error)
	CreateThread(ctx context.Context, title string, initial *domain.NewMessage) (*domain.Thread, error)
	UpdateThread(ctx context.Context, id string, update domain.ThreadUpdate) (*domain.Thread, error)
	DeleteThread(ctx context.Context, id string) error
	AddMessage(ctx context.Context, threadID string, msg domain.NewMessage) (*domain.Message, error)
}

// StreamProvider relays chat turns.
type StreamProvider interface {
	HandleTurn(ctx context.Context, req TurnRequest, sink EventSink) (*TurnResult, error)
}

// ModelProvider lists models for the HTTP layer.
type ModelProvider interface {
	ListModels(ctx context.Context, all bool) ([]domain.ModelInfo, error)
}

// ServiceStatus represents chat service health
type ServiceStatus struct {
	IsHealthy    bool
	StoreHealthy bool
	Message      string
}
