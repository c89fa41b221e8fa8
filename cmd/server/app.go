// File: cmd/server/app.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-relay/internal/config"
	"github.com/iyunix/go-relay/internal/handlers"
	"github.com/iyunix/go-relay/internal/metrics"
	"github.com/iyunix/go-relay/internal/middleware"
	"github.com/iyunix/go-relay/internal/ratelimit"
	"github.com/iyunix/go-relay/internal/repository/thread"
	"github.com/iyunix/go-relay/internal/services"
	"github.com/iyunix/go-relay/internal/services/chat"
	"github.com/iyunix/go-relay/internal/services/gateway"
	"github.com/iyunix/go-relay/internal/services/models"
)

// Application aggregates all services and handlers
type Application struct {
	Config  *config.Config
	Logger  services.Logger
	Metrics *metrics.Metrics
	Store   *thread.Store
	Limiter *ratelimit.ClientLimiter
	Handler http.Handler
}

// NewApplication builds every component from cfg. Close releases the store
// and the limiter's sweeper.
func NewApplication(ctx context.Context, cfg *config.Config, logger services.Logger) (*Application, error) {
	m := metrics.New()

	snap, err := thread.OpenSnapshotter(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open thread storage: %w", err)
	}
	store, err := thread.NewStore(ctx, snap,
		thread.WithLogger(logger),
		thread.WithWriteObserver(m),
		thread.WithStrictLoad(cfg.StoreStrictLoad),
	)
	if err != nil {
		snap.Close()
		return nil, fmt.Errorf("load threads: %w", err)
	}

	gwConfig := gateway.DefaultConfig()
	gwConfig.APIKey = cfg.GatewayAPIKey
	gwConfig.BaseURL = cfg.GatewayBaseURL
	gwConfig.RequestTimeout = cfg.GatewayRequestTimeout
	provider, err := gateway.NewOpenAIProvider(gwConfig)
	if err != nil {
		store.Close()
		return nil, err
	}

	directory := models.NewDirectory(provider, cfg.ModelCacheTTL, logger)
	resolver := models.NewResolver(cfg.SearchModel, cfg.DefaultModel)

	chatConfig := chat.DefaultConfig()
	chatConfig.StreamTimeout = cfg.GatewayStreamTimeout
	if err := chatConfig.Validate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("chat config: %w", err)
	}

	threadService := chat.NewThreadService(store, directory, logger)
	relay := chat.NewStreamingService(chatConfig, store, directory, resolver, provider, m, logger)

	limiterConfig := ratelimit.DefaultChatConfig()
	limiterConfig.RequestsPerSecond = cfg.ChatRateLimit
	limiterConfig.Burst = cfg.ChatRateBurst
	limiter := ratelimit.NewClientLimiter(limiterConfig)

	router := &handlers.Router{
		Threads: handlers.NewThreadHandler(threadService, logger),
		Chat:    handlers.NewChatHandler(relay, logger),
		Models:  handlers.NewModelsHandler(threadService, logger),
		Health:  handlers.NewHealthHandler(threadService),
		Log:     handlers.NewLogHandler(logger),
		Metrics: m.Handler(),
		Global: []mux.MiddlewareFunc{
			middleware.RequestID,
			middleware.LoggingMiddleware(logger, m),
			middleware.RecoverPanic(logger),
			middleware.CORS(cfg.CORSAllowedOrigin),
		},
		Protected: []mux.MiddlewareFunc{middleware.NewJWTMiddleware([]byte(cfg.JWTSecretKey), logger)},
		ChatLimit: []mux.MiddlewareFunc{middleware.RateLimitMiddleware(limiter, "chat", logger)},
	}

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Store:   store,
		Limiter: limiter,
		Handler: router.Build(),
	}, nil
}

// Server returns the HTTP server for the configured port. WriteTimeout is
// left unset because chat responses stream for minutes.
func (a *Application) Server() *http.Server {
	return &http.Server{
		Addr:              ":" + a.Config.ServerPort,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

func (a *Application) Close() error {
	a.Limiter.Close()
	return a.Store.Close()
}
