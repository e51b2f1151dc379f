package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/ecl"
)

// ParseMetrics tracks the command language pipeline.
//
// Metrics:
//   - rapidresq_ecl_parses_total: parses by command type and result
//   - rapidresq_ecl_parse_duration_seconds: parse time histogram
//   - rapidresq_ecl_parse_errors_total: diagnostics by stage
//   - rapidresq_ecl_parse_warnings_total: warnings
//   - rapidresq_ecl_command_tokens: token count histogram
type ParseMetrics struct {
	parsesTotal   *prometheus.CounterVec
	parseDuration *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
	warningsTotal prometheus.Counter
	tokens        prometheus.Histogram
}

// NewParseMetrics creates and registers parse metrics.
func NewParseMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ParseMetrics {
	pm := &ParseMetrics{
		parsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parses_total",
				Help:      "Total number of commands parsed",
			},
			[]string{"command_type", "result"},
		),

		parseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parse_duration_seconds",
				Help:      "Duration of command parsing in seconds",
				Buckets:   cfg.ParseDurationBuckets,
			},
			[]string{"result"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parse_errors_total",
				Help:      "Total number of parse diagnostics by stage",
			},
			[]string{"stage"},
		),

		warningsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parse_warnings_total",
				Help:      "Total number of parse warnings",
			},
		),

		tokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "command_tokens",
				Help:      "Number of tokens per command",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 7), // 1 to 64
			},
		),
	}

	registry.MustRegister(
		pm.parsesTotal,
		pm.parseDuration,
		pm.errorsTotal,
		pm.warningsTotal,
		pm.tokens,
	)

	return pm
}

// Record records one parse result.
func (pm *ParseMetrics) Record(r *ecl.Result) {
	result := "success"
	if !r.Success {
		result = "failure"
	}
	commandType := r.CommandType()
	if commandType == "" {
		commandType = "unknown"
	}

	pm.parsesTotal.WithLabelValues(commandType, result).Inc()
	pm.parseDuration.WithLabelValues(result).Observe(r.Metadata.ParseTime.Seconds())
	pm.tokens.Observe(float64(r.Metadata.TokenCount))

	if n := len(r.Diagnostics.LexerErrors); n > 0 {
		pm.errorsTotal.WithLabelValues("lexer").Add(float64(n))
	}
	if n := len(r.Diagnostics.ParseErrors); n > 0 {
		pm.errorsTotal.WithLabelValues("parser").Add(float64(n))
	}
	if n := len(r.Diagnostics.SemanticErrors); n > 0 {
		pm.errorsTotal.WithLabelValues("semantic").Add(float64(n))
	}
	if n := len(r.Diagnostics.Warnings); n > 0 {
		pm.warningsTotal.Add(float64(n))
	}
}
