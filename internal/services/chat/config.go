// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"
)

// DefaultSystemPrompt is prepended to every conversation sent upstream.
const DefaultSystemPrompt = "You are a helpful assistant that can answer questions and help with tasks"

type Config struct {
	SystemPrompt string
	// StreamTimeout bounds one upstream completion from open to drain.
	StreamTimeout time.Duration
	// SaveTimeout bounds persisting the assistant turn after the stream
	// drained, independently of the request context.
	SaveTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.SystemPrompt == "" {
		return fmt.Errorf("system_prompt is required")
	}
	if c.StreamTimeout <= 0 {
		return fmt.Errorf("stream_timeout must be positive")
	}
	if c.SaveTimeout <= 0 {
		return fmt.Errorf("save_timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		SystemPrompt:  DefaultSystemPrompt,
		StreamTimeout: 5 * time.Minute,
		SaveTimeout:   5 * time.Second,
	}
}
