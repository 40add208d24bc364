// Package metrics holds the Prometheus collectors of the bridge.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

const metricPrefix = "kicadbridge_"

// Metrics owns a registry so tests and embedders do not share the global one.
type Metrics struct {
	registry *prometheus.Registry

	invocations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	toolCalls   *prometheus.CounterVec
}

// New creates and registers the bridge collectors together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "worker_invocations_total",
				Help: "Total worker invocations by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "worker_latency_seconds",
				Help:    "Worker invocation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tool_calls_total",
				Help: "Total MCP tool calls by tool and result",
			},
			[]string{"tool", "result"},
		),
	}
	m.registry.MustRegister(
		m.invocations,
		m.latency,
		m.toolCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveInvocation records one worker invocation.
func (m *Metrics) ObserveInvocation(method string, outcome protocol.Outcome, d time.Duration) {
	if method == "" {
		method = "unknown"
	}
	m.invocations.WithLabelValues(method, string(outcome)).Inc()
	m.latency.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveToolCall records one MCP tool call.
func (m *Metrics) ObserveToolCall(tool string, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.toolCalls.WithLabelValues(tool, result).Inc()
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
