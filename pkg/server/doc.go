// Package server exposes the RapidResQ processor over HTTP.
//
// # Routes
//
//	POST /api/emergency/parse              parse, queue and execute a command
//	GET  /api/emergency/parser-info        grammar, statistics and examples
//	GET  /api/emergency/parser-test        parse the self-test commands
//	GET  /api/emergency/concurrency-stats  coordinator snapshot
//	GET  /api/emergency/concurrency-demo   submit the demo batch concurrently
//	GET  /api/emergency/queue              queued entries
//	POST /api/emergency/queue/drain?max=N  remove queued entries, oldest first
//	GET  /api/emergency/nearby?lat&lon     facilities around a point
//
// Probes and the Prometheus endpoint are mounted at the paths named in the
// telemetry configuration.
//
// # Usage
//
//	srv, err := server.New(cfg, server.Options{
//	    Engine:    eng,
//	    Locations: locations,
//	    Metrics:   collector,
//	    Health:    checker,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// Start returns when ctx is done, after a graceful shutdown bounded by
// server.shutdown_timeout.
//
// # Status codes
//
// A command that fails to parse is answered with 400 and suggestions. A
// request refused by the coordinator (guard timeout, admission limit) is
// answered with 503 and Retry-After; a request that outlives
// server.request_timeout with 504.
package server
