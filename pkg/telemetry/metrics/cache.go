package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"rapidresq/resq/pkg/config"
)

// CacheMetrics mirrors the hit and miss counters of the resolver caches.
//
// Metrics:
//   - rapidresq_ecl_cache_hits_total: cache hits by cache name
//   - rapidresq_ecl_cache_misses_total: cache misses by cache name
type CacheMetrics struct {
	hits   *prometheus.Desc
	misses *prometheus.Desc

	mu     sync.RWMutex
	values map[string][2]uint64
}

// NewCacheMetrics creates and registers cache metrics.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, "cache_hits_total"),
			"Total number of cache hits",
			[]string{"cache"}, nil,
		),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, "cache_misses_total"),
			"Total number of cache misses",
			[]string{"cache"}, nil,
		),
		values: make(map[string][2]uint64),
	}

	registry.MustRegister(cm)
	return cm
}

// Update stores the cumulative counters of cache.
func (cm *CacheMetrics) Update(cache string, hits, misses uint64) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.values[cache] = [2]uint64{hits, misses}
}

// Describe implements prometheus.Collector.
func (cm *CacheMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- cm.hits
	ch <- cm.misses
}

// Collect implements prometheus.Collector.
func (cm *CacheMetrics) Collect(ch chan<- prometheus.Metric) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	names := make([]string, 0, len(cm.values))
	for name := range cm.values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := cm.values[name]
		ch <- prometheus.MustNewConstMetric(cm.hits, prometheus.CounterValue, float64(v[0]), name)
		ch <- prometheus.MustNewConstMetric(cm.misses, prometheus.CounterValue, float64(v[1]), name)
	}
}
