package qtool

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector exposes live Prometheus counters and a duration
// histogram for a running benchmark, adapted from ChuLiYu-raft-recovery's
// internal/metrics.Collector. It never affects the required stdout
// summary; it is purely additive observability for long runs.
type MetricsCollector struct {
	queriesTotal   prometheus.Counter
	queriesOKTotal prometheus.Counter
	duration       prometheus.Histogram
}

// NewMetricsCollector registers a fresh set of metrics against reg.
func NewMetricsCollector(reg *prometheus.Registry) *MetricsCollector {
	c := &MetricsCollector{
		queriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qtool_queries_total",
			Help: "Total number of queries dispatched to workers.",
		}),
		queriesOKTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qtool_queries_ok_total",
			Help: "Total number of queries that returned at least one row.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qtool_query_duration_ms",
			Help:    "Per-query execution time in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
	}
	reg.MustRegister(c.queriesTotal, c.queriesOKTotal, c.duration)
	return c
}

// Observe records one QDuration as it is folded by the StatsCollector.
func (c *MetricsCollector) Observe(d QDuration) {
	c.queriesTotal.Inc()
	if !d.OK {
		return
	}
	c.queriesOKTotal.Inc()
	c.duration.Observe(float64(d.DurationMs))
}

// Serve starts a blocking Prometheus HTTP server on port, exposing reg at
// /metrics. Meant to be run in its own goroutine.
func Serve(port int32, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
