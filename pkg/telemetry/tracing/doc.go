// Package tracing provides OpenTelemetry tracing for the RapidResQ processor.
//
// # Spans
//
// The engine creates one span tree per command:
//
//	engine.process          request.id, emergency.id, outcome.state
//	├── ecl.parse           parse.success, parse.tokens, parse.errors
//	└── dispatch.ALERT      dispatch.action
//
// The HTTP server wraps each route with HTTPMiddleware, which continues the
// caller's W3C trace context and starts a server span named "<METHOD> <route>".
//
// # Sampling
//
//   - always: sample every trace
//   - never: sample nothing
//   - ratio: sample a fraction of traces by trace ID
//
// All strategies respect the sampling decision of an incoming traceparent.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(version))
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	eng := engine.New(engine.Options{Tracer: tracer, ...})
//
// Spans are exported over OTLP/gRPC to the configured endpoint. When tracing
// is disabled New returns a noop tracer and nothing is exported.
package tracing
