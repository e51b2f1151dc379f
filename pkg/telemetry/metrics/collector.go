package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/coordinator"
	"rapidresq/resq/pkg/ecl"
)

// Collector owns every RapidResQ metric. It implements the engine's
// Observer and the coordinator's StatsSink, and exposes HTTP and cache
// instrumentation for the server.
//
// A disabled collector still registers its metrics but records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	parse       *ParseMetrics
	requests    *RequestMetrics
	coordinator *CoordinatorMetrics
	cache       *CacheMetrics
	http        *HTTPMetrics

	routes *CardinalityLimiter
}

// NewCollector creates a collector registering into registry. A nil registry
// gets a fresh one.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "rapidresq", Subsystem: "ecl"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.ParseDurationBuckets) == 0 {
		cfg.ParseDurationBuckets = append([]float64(nil), config.DefaultParseDurationBuckets...)
	}

	return &Collector{
		config:      cfg,
		registry:    registry,
		parse:       NewParseMetrics(cfg, registry),
		requests:    NewRequestMetrics(cfg, registry),
		coordinator: NewCoordinatorMetrics(cfg, registry),
		cache:       NewCacheMetrics(cfg, registry),
		http:        NewHTTPMetrics(cfg, registry),
		routes:      NewCardinalityLimiter(64),
	}
}

// ObserveParse records one pipeline run.
func (c *Collector) ObserveParse(result *ecl.Result) {
	if !c.config.Enabled || result == nil {
		return
	}
	c.parse.Record(result)
}

// ObserveDispatch records one command execution. action is empty when the
// dispatch failed.
func (c *Collector) ObserveDispatch(commandType, action string, d time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.requests.RecordDispatch(commandType, action, d, err)
}

// ObserveOutcome records the terminal state of one request.
func (c *Collector) ObserveOutcome(terminal string, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.requests.RecordOutcome(terminal, d)
}

// Publish stores a coordinator snapshot for the next scrape.
func (c *Collector) Publish(stats coordinator.ConcurrencyStats) {
	if !c.config.Enabled {
		return
	}
	c.coordinator.Update(stats)
}

// RecordHTTPRequest records one API request. Routes beyond the cardinality
// limit are reported as "other".
func (c *Collector) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	if !c.routes.Allow(route) {
		route = "other"
	}
	c.http.Record(route, method, status, d)
}

// RecordRateLimited counts a request refused by the rate limiter.
func (c *Collector) RecordRateLimited() {
	if !c.config.Enabled {
		return
	}
	c.http.rateLimited.Inc()
}

// UpdateCacheStats mirrors cumulative cache counters.
func (c *Collector) UpdateCacheStats(cache string, hits, misses uint64) {
	if !c.config.Enabled {
		return
	}
	c.cache.Update(cache, hits, misses)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct values accepted for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter for up to maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is known or still fits under the limit.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of accepted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
