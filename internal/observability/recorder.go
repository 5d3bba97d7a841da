// Package observability records operation outcomes for the storefront core
// and exposes them in Prometheus format.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder observes the outcome and latency of a named operation such as
// "cart.add_item" or "backend.products".
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Noop discards observations.
type Noop struct{}

// Observe implements Recorder.
func (Noop) Observe(context.Context, string, bool, time.Duration) {}

// Prometheus is a Recorder publishing a result counter and a latency
// histogram per operation on its own registry.
type Prometheus struct {
	registry  *prometheus.Registry
	results   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheus builds a recorder whose metrics are prefixed with namespace
// (default "storefront"). Go runtime and process collectors are registered
// alongside.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "storefront"
	}
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations by name and result.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency by name.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
	}
	reg.MustRegister(
		p.results,
		p.durations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Observe implements Recorder.
func (p *Prometheus) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	p.results.WithLabelValues(operation, result).Inc()
	p.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry exposes the underlying registry for tests and extra collectors.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Time runs fn and observes its outcome under operation.
func Time(ctx context.Context, rec Recorder, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if rec != nil {
		rec.Observe(ctx, operation, err == nil, time.Since(start))
	}
	return err
}
