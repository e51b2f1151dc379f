package server

import (
	"net/http"

	"rapidresq/resq/pkg/server/middleware"
	"rapidresq/resq/pkg/telemetry/health"
	"rapidresq/resq/pkg/telemetry/tracing"
)

// API routes.
const (
	RouteParse            = "/api/emergency/parse"
	RouteParserInfo       = "/api/emergency/parser-info"
	RouteParserTest       = "/api/emergency/parser-test"
	RouteConcurrencyStats = "/api/emergency/concurrency-stats"
	RouteConcurrencyDemo  = "/api/emergency/concurrency-demo"
	RouteQueue            = "/api/emergency/queue"
	RouteQueueDrain       = "/api/emergency/queue/drain"
	RouteNearby           = "/api/emergency/nearby"
)

// cacheCounters is implemented by caching location resolvers.
type cacheCounters interface {
	Hits() uint64
	Misses() uint64
}

// Handler returns the complete HTTP handler: API routes, probes and the
// metrics endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, http.MethodPost, RouteParse, s.handleParse)
	s.route(mux, http.MethodGet, RouteParserInfo, s.handleParserInfo)
	s.route(mux, http.MethodGet, RouteParserTest, s.handleParserTest)
	s.route(mux, http.MethodGet, RouteConcurrencyStats, s.handleConcurrencyStats)
	s.route(mux, http.MethodGet, RouteConcurrencyDemo, s.handleConcurrencyDemo)
	s.route(mux, http.MethodGet, RouteQueue, s.handleQueue)
	s.route(mux, http.MethodPost, RouteQueueDrain, s.handleQueueDrain)
	if s.locations != nil {
		s.route(mux, http.MethodGet, RouteNearby, s.handleNearby)
	}

	if s.health != nil && s.config.Telemetry.Health.Enabled {
		health.Register(mux, &s.config.Telemetry.Health, s.health, s.version)
	}
	if s.metrics != nil && s.config.Telemetry.Metrics.Enabled {
		mux.Handle("GET "+s.config.Telemetry.Metrics.Path, s.metricsHandler())
	}

	var h http.Handler = mux
	h = middleware.CORSMiddleware(middleware.CORSFromConfig(&s.config.Server.CORS))(h)
	h = middleware.RequestIDMiddleware(h)
	h = middleware.RecoveryMiddleware(s.logger)(h)
	return h
}

// route registers an API handler wrapped in the per-route middleware.
func (s *Server) route(mux *http.ServeMux, method, path string, fn http.HandlerFunc) {
	var h http.Handler = fn
	h = s.limitBody(h)
	h = middleware.TimeoutMiddleware(s.config.Server.RequestTimeout)(h)
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}

	var rec middleware.RequestRecorder
	if s.metrics != nil {
		rec = s.metrics
	}
	h = middleware.LoggingMiddleware(s.logger, rec, path)(h)
	if s.tracer != nil {
		h = tracing.HTTPMiddleware(s.tracer, path, h)
	}

	mux.Handle(method+" "+path, h)
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	limit := s.config.Server.MaxBodyBytes
	if limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// metricsHandler serves the registry after refreshing the gauges that are
// sampled rather than updated in place.
func (s *Server) metricsHandler() http.Handler {
	next := s.metrics.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Publish(s.engine.ConcurrencyStats())
		if c, ok := s.locations.(cacheCounters); ok {
			s.metrics.UpdateCacheStats("locations", c.Hits(), c.Misses())
		}
		next.ServeHTTP(w, r)
	})
}
