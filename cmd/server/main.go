// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iyunix/go-relay/internal/config"
	"github.com/iyunix/go-relay/internal/services"
)

func main() {
	cfg := config.Load()
	logger := services.NewLogger("go_relay")

	app, err := NewApplication(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := app.Server()
	logger.Info("server starting",
		"addr", srv.Addr,
		"gateway", cfg.GatewayBaseURL,
		"store_driver", cfg.StoreDriver,
		"store_path", cfg.StorePath,
		"auth", cfg.JWTSecretKey != "",
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		return
	}
	logger.Info("server stopped")
}
