package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger defines common logging interface for all services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ProductionLogger writes structured records through slog.
type ProductionLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewProductionLogger creates a logger writing to w. JSON output is meant
// for production, text output for local development.
func NewProductionLogger(service string, w io.Writer, structured bool) *ProductionLogger {
	level := new(slog.LevelVar)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if structured {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &ProductionLogger{
		logger: slog.New(handler).With("service", service),
		level:  level,
	}
}

// SetLevel updates the logging level
func (p *ProductionLogger) SetLevel(level slog.Level) {
	p.level.Set(level)
}

// With returns a child logger that always carries the given pairs.
func (p *ProductionLogger) With(keysAndValues ...interface{}) *ProductionLogger {
	return &ProductionLogger{logger: p.logger.With(keysAndValues...), level: p.level}
}

// Slog exposes the underlying slog.Logger for packages that take one.
func (p *ProductionLogger) Slog() *slog.Logger {
	return p.logger
}

func (p *ProductionLogger) Info(msg string, keysAndValues ...interface{}) {
	p.logger.Log(context.Background(), slog.LevelInfo, msg, keysAndValues...)
}

func (p *ProductionLogger) Error(msg string, keysAndValues ...interface{}) {
	p.logger.Log(context.Background(), slog.LevelError, msg, keysAndValues...)
}

func (p *ProductionLogger) Debug(msg string, keysAndValues ...interface{}) {
	p.logger.Log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

func (p *ProductionLogger) Warn(msg string, keysAndValues ...interface{}) {
	p.logger.Log(context.Background(), slog.LevelWarn, msg, keysAndValues...)
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Environment-based logger factory
func NewLogger(service string) Logger {
	env := os.Getenv("GO_ENV")
	if env == "test" {
		return &NoOpLogger{}
	}

	production := env == "production" || strings.EqualFold(os.Getenv("ENV"), "production")
	logger := NewProductionLogger(service, os.Stdout, production)
	logger.SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
	return logger
}
