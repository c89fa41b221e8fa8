// File: internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Metrics holds the relay's collectors on a private registry so tests can
// build as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	turns         *prometheus.CounterVec
	turnDuration  *prometheus.HistogramVec
	streamEvents  *prometheus.CounterVec
	storeWrites   *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome and model.",
		}, []string{"outcome", "model"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_turn_duration_seconds",
			Help:      "Wall time of a chat turn from request to last event.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		streamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_total",
			Help:      "Stream events forwarded to clients by type.",
		}, []string{"type"}),
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Thread snapshot flushes by operation and result.",
		}, []string{"op", "result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_write_duration_seconds",
			Help:      "Thread snapshot flush latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(
		m.turns,
		m.turnDuration,
		m.streamEvents,
		m.storeWrites,
		m.storeDuration,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TurnFinished records one relayed chat turn.
func (m *Metrics) TurnFinished(outcome, model string, seconds float64) {
	if model == "" {
		model = "none"
	}
	m.turns.WithLabelValues(outcome, model).Inc()
	m.turnDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *Metrics) EventRelayed(eventType string) {
	m.streamEvents.WithLabelValues(eventType).Inc()
}

// ObserveWrite records one thread snapshot flush.
func (m *Metrics) ObserveWrite(op string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeWrites.WithLabelValues(op, result).Inc()
	m.storeDuration.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) RequestServed(method, code string) {
	m.httpRequests.WithLabelValues(method, code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
