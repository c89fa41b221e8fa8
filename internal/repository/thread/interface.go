// File: internal/repository/thread/interface.go
package thread

import (
	"context"

	"github.com/iyunix/go-relay/internal/domain"
)

// Repository handles thread and message persistence.
type Repository interface {
	List(ctx context.Context) ([]*domain.Thread, error)
	Get(ctx context.Context, id string) (*domain.Thread, error)
	Create(ctx context.Context, title string, initial *domain.NewMessage) (*domain.Thread, error)
	Update(ctx context.Context, id string, update domain.ThreadUpdate) (*domain.Thread, error)
	Delete(ctx context.Context, id string) error
	AddMessage(ctx context.Context, threadID string, msg domain.NewMessage) (*domain.Message, error)
	Messages(ctx context.Context, threadID string) ([]domain.Message, error)
	Healthy() bool
}

// Snapshotter loads and saves the whole thread collection as one blob.
// Load returns (nil, nil) when nothing has been saved yet. Save must not
// retain or mutate the slice it is given.
type Snapshotter interface {
	Load(ctx context.Context) ([]*domain.Thread, error)
	Save(ctx context.Context, threads []*domain.Thread) error
	Close() error
}

// WriteObserver is notified after every snapshot flush.
type WriteObserver interface {
	ObserveWrite(op string, seconds float64, err error)
}

// Logger defines the logging interface used by the thread store.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
