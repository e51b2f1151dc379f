package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rapidresq/resq/pkg/config"
)

// RequestMetrics tracks request outcomes and command execution.
//
// Metrics:
//   - rapidresq_ecl_requests_total: requests by terminal state
//   - rapidresq_ecl_request_duration_seconds: end-to-end duration
//   - rapidresq_ecl_dispatch_total: executions by command type and action
//   - rapidresq_ecl_dispatch_errors_total: failed executions
//   - rapidresq_ecl_dispatch_duration_seconds: execution duration
type RequestMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	dispatchTotal    *prometheus.CounterVec
	dispatchErrors   *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of emergency command requests by terminal state",
			},
			[]string{"state"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of request processing in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
			[]string{"state"},
		),

		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_total",
				Help:      "Total number of executed commands by action",
			},
			[]string{"command_type", "action"},
		),

		dispatchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_errors_total",
				Help:      "Total number of commands that could not be executed",
			},
			[]string{"command_type"},
		),

		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_duration_seconds",
				Help:      "Duration of command execution in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command_type"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.dispatchTotal,
		rm.dispatchErrors,
		rm.dispatchDuration,
	)

	return rm
}

// RecordOutcome records the terminal state of a request.
func (rm *RequestMetrics) RecordOutcome(state string, d time.Duration) {
	rm.requestsTotal.WithLabelValues(state).Inc()
	rm.requestDuration.WithLabelValues(state).Observe(d.Seconds())
}

// RecordDispatch records one execution attempt.
func (rm *RequestMetrics) RecordDispatch(commandType, action string, d time.Duration, err error) {
	rm.dispatchDuration.WithLabelValues(commandType).Observe(d.Seconds())
	if err != nil {
		rm.dispatchErrors.WithLabelValues(commandType).Inc()
		return
	}
	rm.dispatchTotal.WithLabelValues(commandType, action).Inc()
}
