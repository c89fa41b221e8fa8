// File: internal/domain/message.go
package domain

import (
	"strings"
	"time"
)

// Role tags who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message represents a single turn within a thread.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model,omitempty"` // set on assistant turns and relayed user turns
}

// Part types carried on the wire. Only PartText survives persistence.
const (
	PartText      = "text"
	PartReasoning = "reasoning"
	PartSourceURL = "source-url"
	PartFile      = "file"
)

// MessagePart is one piece of a structured chat message as sent by clients.
type MessagePart struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// UIMessage is the structured message a client posts to the chat endpoint.
type UIMessage struct {
	ID    string        `json:"id,omitempty"`
	Role  Role          `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// PartsToFlatText concatenates the text of every text part, in order.
// Reasoning, sources, files and unknown part types are dropped.
func PartsToFlatText(parts []MessagePart) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
