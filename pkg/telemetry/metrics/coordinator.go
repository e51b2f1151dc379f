package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/coordinator"
)

// CoordinatorMetrics exposes the latest published coordinator snapshot. The
// coordinator keeps its own cumulative counters, so they are reported as
// constant metrics at scrape time rather than incremented here.
//
// Nothing is exported until the first snapshot arrives.
type CoordinatorMetrics struct {
	mu    sync.RWMutex
	stats coordinator.ConcurrencyStats
	seen  bool

	counters []snapshotDesc
	gauges   []snapshotDesc
}

type snapshotDesc struct {
	desc  *prometheus.Desc
	value func(s *coordinator.ConcurrencyStats) float64
}

// NewCoordinatorMetrics creates and registers coordinator metrics.
func NewCoordinatorMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CoordinatorMetrics {
	name := func(n string) string {
		return prometheus.BuildFQName(cfg.Namespace, "coordinator", n)
	}
	desc := func(n, help string, value func(s *coordinator.ConcurrencyStats) float64) snapshotDesc {
		return snapshotDesc{desc: prometheus.NewDesc(name(n), help, nil, nil), value: value}
	}

	cm := &CoordinatorMetrics{
		counters: []snapshotDesc{
			desc("requests_total", "Total number of admitted requests",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.TotalRequests) }),
			desc("rejected_total", "Total number of requests refused by admission control",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.RejectedRequests) }),
			desc("race_conditions_total", "Total number of overlapping critical sections detected",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.RaceConditions) }),
			desc("queue_overflows_total", "Total number of messages rejected by a full queue",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.QueueOverflows) }),
			desc("lock_contentions_total", "Total number of guard acquisitions that had to wait",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.LockContentions) }),
			desc("lock_timeouts_total", "Total number of guard waits that timed out",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.LockTimeouts) }),
			desc("parser_acquisitions_total", "Total number of guard acquisitions",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.ParserUsageCount) }),
			desc("emergency_ids_total", "Total number of emergency identifiers issued",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.EmergencyCounter) }),
		},
		gauges: []snapshotDesc{
			desc("in_flight", "Requests currently being processed",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.CurrentInFlight) }),
			desc("in_flight_peak", "Highest number of concurrent requests observed",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.ConcurrentPeak) }),
			desc("queue_length", "Messages currently queued",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.QueueLength) }),
			desc("queue_capacity", "Queue capacity",
				func(s *coordinator.ConcurrencyStats) float64 { return float64(s.QueueCapacity) }),
		},
	}

	registry.MustRegister(cm)
	return cm
}

// Update replaces the exported snapshot.
func (cm *CoordinatorMetrics) Update(stats coordinator.ConcurrencyStats) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.stats = stats
	cm.seen = true
}

// Describe implements prometheus.Collector.
func (cm *CoordinatorMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range cm.counters {
		ch <- d.desc
	}
	for _, d := range cm.gauges {
		ch <- d.desc
	}
}

// Collect implements prometheus.Collector.
func (cm *CoordinatorMetrics) Collect(ch chan<- prometheus.Metric) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if !cm.seen {
		return
	}
	for _, d := range cm.counters {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, d.value(&cm.stats))
	}
	for _, d := range cm.gauges {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.GaugeValue, d.value(&cm.stats))
	}
}
