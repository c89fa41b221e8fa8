// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string

	// Model gateway
	GatewayAPIKey         string
	GatewayBaseURL        string
	GatewayStreamTimeout  time.Duration
	GatewayRequestTimeout time.Duration
	ModelCacheTTL         time.Duration
	SearchModel           string
	DefaultModel          string

	// Thread storage
	StoreDriver     string
	StorePath       string
	StoreStrictLoad bool

	// HTTP surface
	ChatRateLimit     float64
	ChatRateBurst     int
	JWTSecretKey      string
	CORSAllowedOrigin string
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from environment variables or .env file and
// exits when production requirements are not met.
func Load() *Config {
	cfg, err := New()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// New reads configuration from environment variables or .env file.
func New() (*Config, error) {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}
	return fromEnv(env)
}

func fromEnv(env string) (*Config, error) {
	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "3001"),
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),

		GatewayAPIKey:         getEnv("AI_GATEWAY_API_KEY", ""),
		GatewayBaseURL:        getEnv("GATEWAY_BASE_URL", "https://ai-gateway.vercel.sh/v1"),
		GatewayStreamTimeout:  getEnvAsDuration("GATEWAY_STREAM_TIMEOUT", 5*time.Minute),
		GatewayRequestTimeout: getEnvAsDuration("GATEWAY_REQUEST_TIMEOUT", 30*time.Second),
		ModelCacheTTL:         getEnvAsDuration("MODEL_CACHE_TTL", 5*time.Minute),
		SearchModel:           getEnv("SEARCH_MODEL", "perplexity/sonar"),
		DefaultModel:          getEnv("DEFAULT_MODEL", ""),

		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", "file")),
		StorePath:       getEnv("STORE_PATH", "threads.json"),
		StoreStrictLoad: getEnvAsBool("STORE_STRICT_LOAD", false),

		ChatRateLimit:     getEnvAsFloat("CHAT_RATE_LIMIT", 2),
		ChatRateBurst:     getEnvAsInt("CHAT_RATE_BURST", 5),
		JWTSecretKey:      getEnv("JWT_SECRET_KEY", ""),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
	}

	switch cfg.StoreDriver {
	case "file", "sqlite", "bolt":
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be file, sqlite or bolt, got %q", cfg.StoreDriver)
	}

	// Validation for production environments
	if cfg.IsProduction() {
		missing := []string{}
		if cfg.GatewayAPIKey == "" {
			missing = append(missing, "AI_GATEWAY_API_KEY")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("missing required production environment variables: %v", missing)
		}
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as number. Using default value.", key)
		return defaultValue
	}
	return v
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as bool. Using default value.", key)
		return defaultValue
	}
	return v
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
	return defaultValue
}
