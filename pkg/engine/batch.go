package engine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"rapidresq/resq/pkg/coordinator"
)

// DemoCommands is the batch submitted by the concurrency demonstration.
var DemoCommands = []string{
	"ALERT fire at Lahore Hospital",
	"QUERY ambulance near Karachi",
	"STATUS request-12345",
	"HELP medical emergency",
}

// ProcessAll runs commands concurrently, at most limit at a time (0 means
// no limit). Outcomes keep the order of commands. A request refused by the
// coordinator is reported through its FAILED outcome; only the end of ctx
// aborts the batch.
func (e *Engine) ProcessAll(ctx context.Context, commands []string, limit int, opts ...ProcessOption) ([]*Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "engine.batch")
	defer span.End()

	outcomes := make([]*Outcome, len(commands))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, cmd := range commands {
		g.Go(func() error {
			out, err := e.Process(gctx, cmd, opts...)
			outcomes[i] = out
			if err != nil && !errors.Is(err, coordinator.ErrLockTimeout) && !errors.Is(err, coordinator.ErrTooManyInFlight) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
