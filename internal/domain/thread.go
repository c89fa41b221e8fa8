// File: internal/domain/thread.go
package domain

import "time"

// DefaultThreadTitle is the placeholder title a thread keeps until its
// first non-blank user message arrives.
const DefaultThreadTitle = "New Conversation"

// Thread represents a single persisted conversation.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// Clone returns a deep copy. Mutating the copy never affects the original.
func (t *Thread) Clone() *Thread {
	if t == nil {
		return nil
	}
	c := *t
	c.Messages = make([]Message, len(t.Messages))
	copy(c.Messages, t.Messages)
	return &c
}

// NewMessage is what callers supply when appending a turn. ID and
// timestamp are always assigned by the store.
type NewMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// ThreadUpdate is a partial update. Nil fields are left untouched.
type ThreadUpdate struct {
	Title *string `json:"title,omitempty"`
}
