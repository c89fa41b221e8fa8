// File: internal/services/chat/streaming.go
package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/iyunix/go-relay/internal/domain"
	"github.com/iyunix/go-relay/internal/repository/thread"
	"github.com/iyunix/go-relay/internal/services/gateway"
)

// StreamingService relays one chat turn between a client sink and the
// model gateway, persisting both sides of the turn.
type StreamingService struct {
	config    *Config
	threads   thread.Repository
	directory ModelDirectory
	resolver  ModelResolver
	gateway   gateway.CompletionStreamer
	recorder  Recorder
	logger    Logger
}

// NewStreamingService creates a new instance of the StreamingService.
// A nil recorder disables metrics.
func NewStreamingService(
	config *Config,
	threads thread.Repository,
	directory ModelDirectory,
	resolver ModelResolver,
	gw gateway.CompletionStreamer,
	recorder Recorder,
	logger Logger,
) *StreamingService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &StreamingService{
		config:    config,
		threads:   threads,
		directory: directory,
		resolver:  resolver,
		gateway:   gw,
		recorder:  recorder,
		logger:    logger,
	}
}

// HandleTurn persists the user message, streams the model's reply to sink
// and persists the assistant message once the stream drained.
//
// Errors returned before sink.Committed() can be reported to the client
// as structured errors. After that the caller can only end the stream.
func (s *StreamingService) HandleTurn(ctx context.Context, req TurnRequest, sink EventSink) (*TurnResult, error) {
	started := time.Now()
	outcome := OutcomeRejected
	modelID := ""
	defer func() {
		s.recorder.TurnFinished(outcome, modelID, time.Since(started).Seconds())
	}()

	if req.Message.Role != "" && req.Message.Role != domain.RoleUser {
		return nil, NewInvalidRequestError("validate_turn", "message role must be user")
	}
	content := domain.PartsToFlatText(req.Message.Parts)
	if strings.TrimSpace(content) == "" {
		return nil, NewInvalidRequestError("validate_turn", "message text is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, NewInvalidRequestError("validate_turn", "model is required")
	}

	var prior []domain.Message
	if req.ThreadID != "" {
		th, err := s.threads.Get(ctx, req.ThreadID)
		if err != nil {
			return nil, storeError("load_history", req.ThreadID, err)
		}
		prior = th.Messages
	}

	directory, err := s.directory.ChatModels(ctx)
	if err != nil {
		s.logger.Error("model directory unavailable", "error", err)
		return nil, directoryError("resolve_model", err)
	}
	resolution, err := s.resolver.Resolve(directory, req.Model, req.WebSearch)
	if err != nil {
		return nil, directoryError("resolve_model", err)
	}
	if resolution.Ambiguous {
		s.logger.Warn("model display name is ambiguous, using first match",
			"requested", req.Model, "model", resolution.ModelID)
	}
	modelID = resolution.ModelID

	created := false
	if req.ThreadID == "" && req.CreateThread {
		th, err := s.threads.Create(ctx, "", nil)
		if err != nil {
			s.logger.Error("failed to create thread for turn", "error", err)
			return nil, storeError("create_thread", "", err)
		}
		req.ThreadID = th.ID
		created = true
	}

	result := &TurnResult{ThreadID: req.ThreadID, Model: modelID}
	s.logger.Info("starting chat turn",
		"thread_id", req.ThreadID,
		"model", modelID,
		"reason", resolution.Reason,
		"history", len(prior),
		"preview", TruncateText(content, 40),
	)

	// the user turn is durable before anything is sent upstream
	if req.ThreadID != "" {
		userMsg, err := s.threads.AddMessage(ctx, req.ThreadID, domain.NewMessage{
			Role:    domain.RoleUser,
			Content: content,
			Model:   modelID,
		})
		if err != nil {
			s.logger.Error("failed to save user message", "thread_id", req.ThreadID, "error", err)
			if created {
				s.discardThread(ctx, req.ThreadID)
			}
			return nil, storeError("save_user_message", req.ThreadID, err)
		}
		result.UserMessageID = userMsg.ID
	}

	streamCtx, cancel := context.WithTimeout(ctx, s.config.StreamTimeout)
	defer cancel()

	stream, err := s.gateway.StreamCompletion(streamCtx, gateway.CompletionRequest{
		Model:    modelID,
		Messages: BuildConversation(s.config.SystemPrompt, prior, content),
	})
	if err != nil {
		if ctx.Err() != nil {
			outcome = OutcomeCanceled
		}
		s.logger.Error("failed to open gateway stream", "thread_id", req.ThreadID, "model", modelID, "error", err)
		return nil, upstreamError("open_stream", req.ThreadID, err)
	}
	defer stream.Close()

	startSent := false
	emit := func(ev domain.StreamEvent) error {
		if !startSent {
			if err := sink.Send(domain.StreamEvent{Type: domain.EventStart, ThreadID: req.ThreadID, Model: modelID}); err != nil {
				return err
			}
			startSent = true
		}
		if err := sink.Send(ev); err != nil {
			return err
		}
		s.recorder.EventRelayed(ev.Type)
		return nil
	}

	var reply strings.Builder
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			outcome = s.failedOutcome(ctx, sink)
			s.logger.Error("gateway stream failed",
				"thread_id", req.ThreadID,
				"model", modelID,
				"events", result.Events,
				"committed", sink.Committed(),
				"error", err,
			)
			return nil, upstreamError("stream", req.ThreadID, err)
		}

		if ev.Type == domain.EventTextDelta {
			reply.WriteString(ev.Delta)
		}
		if err := emit(ev); err != nil {
			outcome = s.failedOutcome(ctx, sink)
			s.logger.Warn("client stopped receiving, abandoning turn", "thread_id", req.ThreadID, "error", err)
			return nil, &ChatError{Type: ErrTypeUpstream, Operation: "relay", Message: "client disconnected", ThreadID: req.ThreadID, Cause: err}
		}
		result.Events++
	}
	// release the upstream connection before the save
	stream.Close()

	result.Text = reply.String()
	if req.ThreadID != "" {
		if result.Text == "" {
			s.logger.Warn("model returned no text, assistant turn not saved", "thread_id", req.ThreadID, "model", modelID)
		} else {
			// the reply is complete; a client that leaves now must not lose it
			saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.SaveTimeout)
			msg, err := s.threads.AddMessage(saveCtx, req.ThreadID, domain.NewMessage{
				Role:    domain.RoleAssistant,
				Content: result.Text,
				Model:   modelID,
			})
			saveCancel()
			if err != nil {
				outcome = s.failedOutcome(ctx, sink)
				s.logger.Error("failed to save assistant message", "thread_id", req.ThreadID, "error", err)
				return nil, storeError("save_assistant_message", req.ThreadID, err)
			}
			result.AssistantMessageID = msg.ID
		}
	}

	if err := emit(domain.StreamEvent{Type: domain.EventDone, ThreadID: req.ThreadID, MessageID: result.AssistantMessageID}); err != nil {
		// the turn is already saved
		s.logger.Warn("client left before done", "thread_id", req.ThreadID, "error", err)
	}

	outcome = OutcomeCompleted
	s.logger.Info("chat turn completed",
		"thread_id", req.ThreadID,
		"model", modelID,
		"events", result.Events,
		"response_length", len(result.Text),
	)
	return result, nil
}

// discardThread removes a thread created for a turn that never got its
// user message.
func (s *StreamingService) discardThread(ctx context.Context, id string) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.SaveTimeout)
	defer cancel()
	if err := s.threads.Delete(delCtx, id); err != nil {
		s.logger.Warn("failed to discard empty thread", "thread_id", id, "error", err)
	}
}

func (s *StreamingService) failedOutcome(ctx context.Context, sink EventSink) string {
	switch {
	case ctx.Err() != nil:
		return OutcomeCanceled
	case sink.Committed():
		return OutcomeAborted
	default:
		return OutcomeRejected
	}
}

var _ StreamProvider = (*StreamingService)(nil)
