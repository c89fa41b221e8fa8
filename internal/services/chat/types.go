// File: internal/services/chat/types.go
package chat

import "github.com/iyunix/go-relay/internal/domain"

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// TurnRequest is one user turn submitted to the relay. An empty ThreadID
// relays the turn without persisting anything, unless CreateThread asks
// for a new thread once the turn has been accepted.
type TurnRequest struct {
	ThreadID     string
	CreateThread bool
	Message      domain.UIMessage
	Model        string
	WebSearch    bool
}

// TurnResult describes a completed turn.
type TurnResult struct {
	ThreadID string
	Model    string
	// UserMessageID and AssistantMessageID are empty when nothing was
	// persisted for that side of the turn.
	UserMessageID      string
	AssistantMessageID string
	Text               string
	Events             int
}

// Turn outcomes reported to the metrics recorder.
const (
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeAborted   = "aborted"
	OutcomeCanceled  = "canceled"
)
