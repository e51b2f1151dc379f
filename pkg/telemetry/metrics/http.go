package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rapidresq/resq/pkg/config"
)

// HTTPMetrics tracks the API server.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
}

// NewHTTPMetrics creates and registers HTTP metrics.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "rate_limited_total",
				Help:      "Total number of requests refused by the rate limiter",
			},
		),
	}

	registry.MustRegister(hm.requestsTotal, hm.requestDuration, hm.rateLimited)
	return hm
}

// Record records one request.
func (hm *HTTPMetrics) Record(route, method string, status int, d time.Duration) {
	hm.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	hm.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}
