package main

import (
	"log/slog"

	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/coordinator"
	"rapidresq/resq/pkg/dispatch"
	"rapidresq/resq/pkg/dispatch/resolver"
	"rapidresq/resq/pkg/ecl"
	"rapidresq/resq/pkg/ecl/ast"
	"rapidresq/resq/pkg/engine"
)

// app holds the processing pipeline shared by the subcommands.
type app struct {
	coord     *coordinator.Coordinator
	locations dispatch.LocationResolver
	cache     *resolver.Cached
	statuses  *resolver.StatusStore
	engine    *engine.Engine
}

// appOptions carries optional telemetry hooks.
type appOptions struct {
	Observer engine.Observer
	Tracer   engine.Tracer
	Logger   *slog.Logger
}

// newApp wires the coordinator, resolvers, dispatcher and engine from cfg.
// Close releases the resolver caches.
func newApp(cfg *config.Config, opts appOptions) *app {
	a := &app{}
	a.coord = coordinator.New(coordinator.Options{
		QueueCapacity:  cfg.Concurrency.QueueCapacity,
		LockTimeout:    cfg.Concurrency.LockTimeout,
		MaxInFlight:    cfg.Concurrency.MaxInFlight,
		InitialCounter: cfg.Concurrency.InitialCounter,
		Logger:         opts.Logger,
	})

	if cfg.Dispatch.Resolver == "static" {
		a.locations = resolver.NewStatic()
		if cfg.Dispatch.CacheTTL > 0 {
			a.cache = resolver.NewCached(a.locations, cfg.Dispatch.CacheTTL)
			a.locations = a.cache
		}
	}

	var dispatcher *dispatch.Dispatcher
	if cfg.Dispatch.Enabled {
		a.statuses = resolver.NewStatusStore(cfg.Dispatch.StatusTTL)
		center := ast.Coordinates{
			Latitude:  cfg.Dispatch.DefaultCenter.Latitude,
			Longitude: cfg.Dispatch.DefaultCenter.Longitude,
		}
		dispatcher = dispatch.New(dispatch.Options{
			Locations:     a.locations,
			Statuses:      a.statuses,
			Recorder:      a.statuses,
			IDs:           a.coord,
			Fallback:      resolver.FallbackHospitals(),
			DefaultCenter: &center,
			MaxResults:    cfg.Dispatch.MaxResults,
			NearbyLimit:   cfg.Dispatch.NearbyLimit,
			Logger:        opts.Logger,
		})
	}

	a.engine = engine.New(engine.Options{
		Processor:   ecl.NewProcessor().WithMaxLength(cfg.Parser.MaxLength),
		Coordinator: a.coord,
		Dispatcher:  dispatcher,
		Latency:     engine.UniformLatency(cfg.Parser.SimulatedLatencyMin, cfg.Parser.SimulatedLatencyMax),
		Tracer:      opts.Tracer,
		Observer:    opts.Observer,
		Logger:      opts.Logger,
	})
	return a
}

// Close stops the expiry goroutines of the resolver caches.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Stop()
	}
	if a.statuses != nil {
		a.statuses.Stop()
	}
}
