// File: internal/services/chat/conversation.go
package chat

import (
	"strings"
	"unicode/utf8"

	"github.com/iyunix/go-relay/internal/domain"
	"github.com/iyunix/go-relay/internal/services/gateway"
)

// BuildConversation assembles the upstream message list: the system
// instruction, then stored history in order, then the new user turn.
// Stored system messages are dropped; the instruction is always the only
// system message sent upstream.
func BuildConversation(systemPrompt string, prior []domain.Message, userText string) []gateway.Message {
	out := make([]gateway.Message, 0, len(prior)+2)
	out = append(out, gateway.Message{Role: domain.RoleSystem, Content: systemPrompt})
	for _, m := range prior {
		if m.Role == domain.RoleSystem {
			continue
		}
		content := SanitizeForPrompt(m.Content)
		// blank turns are rejected by some providers
		if strings.TrimSpace(content) == "" {
			continue
		}
		out = append(out, gateway.Message{Role: m.Role, Content: content})
	}
	out = append(out, gateway.Message{Role: domain.RoleUser, Content: SanitizeForPrompt(userText)})
	return out
}

// SanitizeForPrompt removes characters that break upstream request bodies
// and normalizes line endings. Stored content is never rewritten.
func SanitizeForPrompt(input string) string {
	sanitized := strings.ReplaceAll(input, "\x00", "")
	sanitized = strings.ReplaceAll(sanitized, "\r\n", "\n")
	sanitized = strings.ReplaceAll(sanitized, "\r", "\n")
	return sanitized
}

// TruncateText safely truncates a UTF-8 string to maxLen runes, preserving character integrity
func TruncateText(input string, maxLen int) string {
	if input == "" || maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= maxLen {
		return input
	}

	var b strings.Builder
	count := 0
	for _, r := range input {
		if count >= maxLen {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
