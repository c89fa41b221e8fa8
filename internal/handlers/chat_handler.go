// File: internal/handlers/chat_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/iyunix/go-relay/internal/domain"
	"github.com/iyunix/go-relay/internal/middleware"
	"github.com/iyunix/go-relay/internal/services/chat"
)

// ThreadIDHeader reports the thread a streamed turn was saved to.
const ThreadIDHeader = "X-Thread-Id"

type ChatHandler struct {
	Relay  chat.StreamProvider
	Logger Logger
}

func NewChatHandler(relay chat.StreamProvider, logger Logger) *ChatHandler {
	return &ChatHandler{Relay: relay, Logger: logger}
}

// chatRequest accepts the web client's body. The client names the thread
// "id"; older clients send the whole "messages" list instead of "message".
type chatRequest struct {
	ThreadID     string             `json:"threadId"`
	ID           string             `json:"id"`
	CreateThread bool               `json:"createThread"`
	Message      *domain.UIMessage  `json:"message"`
	Messages     []domain.UIMessage `json:"messages"`
	Model        string             `json:"model"`
	WebSearch    bool               `json:"webSearch"`
}

func (c *chatRequest) threadID() string {
	if c.ThreadID != "" {
		return c.ThreadID
	}
	return c.ID
}

func (c *chatRequest) message() *domain.UIMessage {
	if c.Message != nil {
		return c.Message
	}
	if n := len(c.Messages); n > 0 {
		return &c.Messages[n-1]
	}
	return nil
}

// HandleChat relays one turn as a server-sent event stream.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming unsupported", string(chat.ErrTypeUpstream), http.StatusInternalServerError)
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err.Error(), string(chat.ErrTypeInvalidRequest), http.StatusBadRequest)
		return
	}
	msg := req.message()
	if msg == nil {
		writeError(w, "message is required", string(chat.ErrTypeInvalidRequest), http.StatusBadRequest)
		return
	}

	threadID := req.threadID()
	sink := newSSESink(w, flusher)
	_, err := h.Relay.HandleTurn(r.Context(), chat.TurnRequest{
		ThreadID:     threadID,
		CreateThread: req.CreateThread,
		Message:      *msg,
		Model:        req.Model,
		WebSearch:    req.WebSearch,
	}, sink)
	if sink.threadID != "" {
		threadID = sink.threadID
	}

	switch {
	case err == nil:
		sink.finish()
	case sink.Committed():
		// headers are gone; the client sees the stream end without done
		h.Logger.Warn("chat stream aborted",
			"request_id", middleware.GetRequestID(r.Context()),
			"thread_id", threadID,
			"error", err,
		)
		sink.abort()
	default:
		h.Logger.Error("chat turn rejected",
			"request_id", middleware.GetRequestID(r.Context()),
			"thread_id", threadID,
			"error", err,
		)
		writeChatError(w, err)
	}
}

// sseSink frames stream events as SSE. Headers are written on the first
// event so failures before it can still become JSON errors. The thread id
// header comes from that first event, so rejected turns never report one.
type sseSink struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	committed bool
	threadID  string
}

func newSSESink(w http.ResponseWriter, flusher http.Flusher) *sseSink {
	return &sseSink{w: w, flusher: flusher}
}

func (s *sseSink) Committed() bool { return s.committed }

func (s *sseSink) Send(ev domain.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if !s.committed && ev.ThreadID != "" {
		s.threadID = ev.ThreadID
		s.w.Header().Set(ThreadIDHeader, ev.ThreadID)
	}
	s.commit()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseSink) commit() {
	if s.committed {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.committed = true
}

func (s *sseSink) finish() {
	s.commit()
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

func (s *sseSink) abort() {
	fmt.Fprint(s.w, ": stream aborted\n\n")
	s.flusher.Flush()
}
