package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/coordinator"
)

// QueueCheck fails while the message queue is at capacity.
func QueueCheck(q *coordinator.Queue) CheckFunc {
	return func(ctx context.Context) error {
		if n, capacity := q.Len(), q.Cap(); n >= capacity {
			return fmt.Errorf("queue full: %d/%d", n, capacity)
		}
		return nil
	}
}

// AdmissionCheck fails while an admission limit is configured and every slot
// is taken.
func AdmissionCheck(t *coordinator.Tracker) CheckFunc {
	return func(ctx context.Context) error {
		if t.Remaining() == 0 {
			return fmt.Errorf("in-flight limit reached: %d", t.Limit())
		}
		return nil
	}
}

// GuardCheck fails when the parser guard stays occupied until ctx ends. It
// never takes the guard, so usage counters are unaffected.
func GuardCheck(g *coordinator.Guard) CheckFunc {
	return func(ctx context.Context) error {
		if !g.Held() {
			return nil
		}
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return fmt.Errorf("parser guard busy: %w", ctx.Err())
			case <-ticker.C:
				if !g.Held() {
					return nil
				}
			}
		}
	}
}

// ConfigCheck fails when no configuration has been loaded.
func ConfigCheck(get func() *config.Config) CheckFunc {
	return func(ctx context.Context) error {
		if get() == nil {
			return errors.New("configuration not loaded")
		}
		return nil
	}
}

// RegisterCoordinatorChecks registers the queue, guard and admission checks.
func RegisterCoordinatorChecks(c *Checker, coord *coordinator.Coordinator) {
	c.RegisterCheck("queue", QueueCheck(coord.Queue()))
	c.RegisterCheck("guard", GuardCheck(coord.Guard()))
	c.RegisterCheck("admission", AdmissionCheck(coord.Tracker()))
}
