// File: internal/services/models/directory.go
package models

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iyunix/go-relay/internal/domain"
	"github.com/iyunix/go-relay/internal/services/gateway"
)

// Logger defines the logging interface used by the model directory.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Directory serves the gateway's model list through a short TTL cache.
// Concurrent cache misses share a single upstream fetch; failed fetches
// are never cached.
type Directory struct {
	lister gateway.ModelLister
	ttl    time.Duration
	logger Logger
	now    func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	cached    []domain.ModelInfo
	fetchedAt time.Time
}

// NewDirectory creates a directory. A ttl of zero disables caching.
func NewDirectory(lister gateway.ModelLister, ttl time.Duration, logger Logger) *Directory {
	return &Directory{
		lister: lister,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// All returns every model the gateway reports.
func (d *Directory) All(ctx context.Context) ([]domain.ModelInfo, error) {
	if models, ok := d.fresh(); ok {
		return models, nil
	}

	// the shared fetch outlives any single caller; the provider's request
	// timeout bounds it
	fetchCtx := context.WithoutCancel(ctx)
	ch := d.group.DoChan("models", func() (interface{}, error) {
		models, err := d.lister.ListModels(fetchCtx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.cached = models
		d.fetchedAt = d.now()
		d.mu.Unlock()
		d.logger.Debug("model directory refreshed", "models", len(models))
		return models, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		d.logger.Error("model directory fetch failed", "error", res.Err, "shared", res.Shared)
		return nil, res.Err
	}
	v := res.Val
	return copyModels(v.([]domain.ModelInfo)), nil
}

// ChatModels returns the models usable for conversational text generation.
func (d *Directory) ChatModels(ctx context.Context) ([]domain.ModelInfo, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	return FilterLanguage(all), nil
}

// Invalidate drops the cached list so the next call refetches.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.fetchedAt = time.Time{}
	d.mu.Unlock()
}

func (d *Directory) fresh() ([]domain.ModelInfo, bool) {
	if d.ttl <= 0 {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.cached == nil || d.now().Sub(d.fetchedAt) >= d.ttl {
		return nil, false
	}
	return copyModels(d.cached), true
}

// FilterLanguage keeps only entries whose modality is "language".
func FilterLanguage(models []domain.ModelInfo) []domain.ModelInfo {
	out := make([]domain.ModelInfo, 0, len(models))
	for _, m := range models {
		if m.Modality == domain.ModalityLanguage {
			out = append(out, m)
		}
	}
	return out
}

func copyModels(in []domain.ModelInfo) []domain.ModelInfo {
	out := make([]domain.ModelInfo, len(in))
	copy(out, in)
	return out
}
