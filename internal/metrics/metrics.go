// Package metrics exposes Prometheus counters for graph mutations, desyncs, repairs and HTTP traffic.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	Mutations    *prometheus.CounterVec
	Desyncs      *prometheus.CounterVec
	Repairs      *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector on its own registry, so tests can build as many as they like.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	mutations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Graph mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	desyncs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "desync_total",
			Help:      "Secondary writes that failed after their primary write succeeded",
		},
		[]string{"operation", "set"},
	)

	repairs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "desync_repairs_total",
			Help:      "Desync journal entries processed by the repair worker",
		},
		[]string{"outcome"},
	)

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(mutations, desyncs, repairs, httpRequests, httpDuration)

	return &Collector{
		registry:     registry,
		Mutations:    mutations,
		Desyncs:      desyncs,
		Repairs:      repairs,
		HTTPRequests: httpRequests,
		HTTPDuration: httpDuration,
	}
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Mutation(operation, outcome string) {
	if c == nil {
		return
	}
	c.Mutations.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) Desync(operation, set string) {
	if c == nil {
		return
	}
	c.Desyncs.WithLabelValues(operation, set).Inc()
}

func (c *Collector) Repair(outcome string) {
	if c == nil {
		return
	}
	c.Repairs.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
