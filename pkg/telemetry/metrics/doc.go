// Package metrics provides Prometheus metrics for the RapidResQ processor.
//
// # Metrics Categories
//
//   - Parse metrics: parses by command type and result, parse duration,
//     diagnostics by stage, token counts
//   - Request metrics: terminal states, end-to-end duration, executions by
//     action and failed executions
//   - Coordinator metrics: the latest ConcurrencyStats snapshot (admitted and
//     rejected requests, lock contention, queue length and overflows)
//   - Cache metrics: resolver cache hits and misses
//   - HTTP metrics: API requests by route and status, rate-limited requests
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	eng := engine.New(engine.Options{Observer: collector, ...})
//	reporter := coordinator.NewReporter(coord, collector, nil, reporterCfg)
//
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Prometheus Endpoint
//
//	# HELP rapidresq_ecl_parses_total Total number of commands parsed
//	# TYPE rapidresq_ecl_parses_total counter
//	rapidresq_ecl_parses_total{command_type="ALERT",result="success"} 12
//
// Coordinator metrics refresh whenever a snapshot is published, normally on
// the reporter schedule and on every scrape made through the server.
package metrics
