// File: internal/domain/stream.go
package domain

// Stream event types, in the shape the web client consumes.
const (
	EventStart          = "start"
	EventTextDelta      = "text-delta"
	EventReasoningDelta = "reasoning-delta"
	EventSourceURL      = "source-url"
	EventDone           = "done"
)

// StreamEvent is one incremental piece of an assistant turn.
type StreamEvent struct {
	Type      string `json:"type"`
	Delta     string `json:"delta,omitempty"`
	SourceID  string `json:"sourceId,omitempty"`
	URL       string `json:"url,omitempty"`
	Title     string `json:"title,omitempty"`
	ThreadID  string `json:"threadId,omitempty"`
	Model     string `json:"model,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}
