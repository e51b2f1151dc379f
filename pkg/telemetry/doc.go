// Package telemetry groups the observability packages of the RapidResQ
// processor.
//
// # Components
//
//   - logging: structured slog logging with PII and location redaction
//   - metrics: Prometheus metrics for parsing, execution, coordination and HTTP
//   - tracing: OpenTelemetry spans exported over OTLP
//   - health: liveness, readiness and version endpoints
//
// All components are configured from config.TelemetryConfig:
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	    redact_pii: true
//	  metrics:
//	    enabled: true
//	    path: /metrics
//	  tracing:
//	    enabled: false
//	    sampler: ratio
//	    sample_ratio: 0.1
//	  health:
//	    enabled: true
package telemetry
