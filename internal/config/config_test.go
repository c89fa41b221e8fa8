package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		// Setenv restores the original value after the test
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	unsetEnv(t, "SERVER_PORT", "GATEWAY_BASE_URL", "GATEWAY_STREAM_TIMEOUT", "MODEL_CACHE_TTL",
		"SEARCH_MODEL", "DEFAULT_MODEL", "STORE_DRIVER", "STORE_PATH", "CHAT_RATE_LIMIT", "CHAT_RATE_BURST",
		"JWT_SECRET_KEY", "CORS_ALLOWED_ORIGIN")

	cfg, err := fromEnv("")
	require.NoError(t, err)
	assert.Equal(t, "3001", cfg.ServerPort)
	assert.Equal(t, "https://ai-gateway.vercel.sh/v1", cfg.GatewayBaseURL)
	assert.Equal(t, 5*time.Minute, cfg.GatewayStreamTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ModelCacheTTL)
	assert.Equal(t, "perplexity/sonar", cfg.SearchModel)
	assert.Empty(t, cfg.DefaultModel)
	assert.Equal(t, "file", cfg.StoreDriver)
	assert.Equal(t, "threads.json", cfg.StorePath)
	assert.Equal(t, 2.0, cfg.ChatRateLimit)
	assert.Equal(t, 5, cfg.ChatRateBurst)
	assert.Empty(t, cfg.JWTSecretKey)
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
}

func TestFromEnv_Values(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("MODEL_CACHE_TTL", "0")
	t.Setenv("GATEWAY_STREAM_TIMEOUT", "90s")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("STORE_STRICT_LOAD", "true")
	t.Setenv("CHAT_RATE_LIMIT", "0.5")
	t.Setenv("CHAT_RATE_BURST", "not-a-number")

	cfg, err := fromEnv("development")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, time.Duration(0), cfg.ModelCacheTTL)
	assert.Equal(t, 90*time.Second, cfg.GatewayStreamTimeout)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.True(t, cfg.StoreStrictLoad)
	assert.Equal(t, 0.5, cfg.ChatRateLimit)
	assert.Equal(t, 5, cfg.ChatRateBurst)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_ProductionRequiresGatewayKey(t *testing.T) {
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("AI_GATEWAY_API_KEY", "")

	_, err := fromEnv("production")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_GATEWAY_API_KEY")

	t.Setenv("AI_GATEWAY_API_KEY", "key")
	cfg, err := fromEnv("production")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestFromEnv_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	_, err := fromEnv("")
	assert.Error(t, err)
}
