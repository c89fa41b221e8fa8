// File: internal/services/chat/service.go
package chat

import (
	"context"
	"strings"

	"github.com/iyunix/go-relay/internal/domain"
	"github.com/iyunix/go-relay/internal/repository/thread"
)

// ThreadService exposes thread CRUD and the model list with errors
// translated into ChatError.
type ThreadService struct {
	threads   thread.Repository
	directory ModelDirectory
	logger    Logger
}

func NewThreadService(threads thread.Repository, directory ModelDirectory, logger Logger) *ThreadService {
	return &ThreadService{threads: threads, directory: directory, logger: logger}
}

func (s *ThreadService) ListThreads(ctx context.Context) ([]*domain.Thread, error) {
	threads, err := s.threads.List(ctx)
	if err != nil {
		return nil, storeError("list_threads", "", err)
	}
	return threads, nil
}

func (s *ThreadService) GetThread(ctx context.Context, id string) (*domain.Thread, error) {
	th, err := s.threads.Get(ctx, id)
	if err != nil {
		return nil, storeError("get_thread", id, err)
	}
	return th, nil
}

func (s *ThreadService) CreateThread(ctx context.Context, title string, initial *domain.NewMessage) (*domain.Thread, error) {
	if initial != nil {
		if err := validateMessage("create_thread", *initial); err != nil {
			return nil, err
		}
	}
	th, err := s.threads.Create(ctx, strings.TrimSpace(title), initial)
	if err != nil {
		s.logger.Error("failed to create thread", "error", err)
		return nil, storeError("create_thread", "", err)
	}
	s.logger.Info("thread created", "thread_id", th.ID, "seeded", initial != nil)
	return th, nil
}

func (s *ThreadService) UpdateThread(ctx context.Context, id string, update domain.ThreadUpdate) (*domain.Thread, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, NewInvalidRequestError("update_thread", "title must not be empty")
	}
	th, err := s.threads.Update(ctx, id, update)
	if err != nil {
		return nil, storeError("update_thread", id, err)
	}
	return th, nil
}

func (s *ThreadService) DeleteThread(ctx context.Context, id string) error {
	if err := s.threads.Delete(ctx, id); err != nil {
		return storeError("delete_thread", id, err)
	}
	s.logger.Info("thread deleted", "thread_id", id)
	return nil
}

func (s *ThreadService) AddMessage(ctx context.Context, threadID string, msg domain.NewMessage) (*domain.Message, error) {
	if err := validateMessage("add_message", msg); err != nil {
		return nil, err
	}
	m, err := s.threads.AddMessage(ctx, threadID, msg)
	if err != nil {
		return nil, storeError("add_message", threadID, err)
	}
	return m, nil
}

// ListModels returns the chat-capable models, or every model when all is set.
func (s *ThreadService) ListModels(ctx context.Context, all bool) ([]domain.ModelInfo, error) {
	var (
		list []domain.ModelInfo
		err  error
	)
	if all {
		list, err = s.directory.All(ctx)
	} else {
		list, err = s.directory.ChatModels(ctx)
	}
	if err != nil {
		s.logger.Error("failed to fetch models", "error", err)
		return nil, &ChatError{Type: ErrTypeModelService, Operation: "list_models", Message: "failed to fetch models", Details: gatewayDetails(err), Cause: err}
	}
	return list, nil
}

// Status reports whether the thread store is still accepting writes.
func (s *ThreadService) Status() ServiceStatus {
	healthy := s.threads.Healthy()
	status := ServiceStatus{IsHealthy: healthy, StoreHealthy: healthy, Message: "ok"}
	if !healthy {
		status.Message = "thread storage is failing"
	}
	return status
}

func validateMessage(operation string, msg domain.NewMessage) error {
	if !msg.Role.Valid() {
		return NewInvalidRequestError(operation, "role must be one of user, assistant, system")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return NewInvalidRequestError(operation, "content is required")
	}
	return nil
}

var (
	_ ThreadProvider = (*ThreadService)(nil)
	_ ModelProvider  = (*ThreadService)(nil)
)
