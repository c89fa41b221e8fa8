// File: internal/services/gateway/config.go
package gateway

import (
	"fmt"
	"net/http"
	"time"
)

type Config struct {
	APIKey  string
	BaseURL string

	// RequestTimeout bounds non-streaming calls such as model listing.
	// Streams are bounded by the caller's context instead, since an
	// http.Client timeout would cut long replies short.
	RequestTimeout time.Duration

	// Retry applies to model listing only. A stream is never reopened
	// because the upstream may already have produced output.
	Retry *RetryConfig

	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient *http.Client
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("AI_GATEWAY_API_KEY is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://ai-gateway.vercel.sh/v1",
		RequestTimeout: 30 * time.Second,
		Retry:          DefaultRetryConfig(),
	}
}
