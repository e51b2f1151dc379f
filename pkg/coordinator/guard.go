package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Guard provides mutual exclusion around the parser's critical section.
//
// # Algorithm
//
//  1. Try to acquire the weight-1 semaphore without blocking
//  2. If that fails: count a contention and block until acquired, the
//     caller's context ends, or the lock timeout elapses
//  3. On entry: increment the holder count; a count above one is recorded
//     as a race
//  4. Release decrements the holder count and frees the semaphore exactly once
//
// # Thread Safety
//
// Guard is safe for concurrent use. Counters are atomic.
type Guard struct {
	sem         *semaphore.Weighted
	timeout     time.Duration
	holders     atomic.Int32
	acquired    atomic.Uint64
	contentions atomic.Uint64
	timeouts    atomic.Uint64
	races       atomic.Uint64
}

// NewGuard creates a guard. A non-positive timeout waits only on the
// caller's context.
//
// Example:
//
//	g := NewGuard(2 * time.Second)
//	release, err := g.Acquire(ctx)
//	if err != nil {
//	    return err // *ConcurrencyError wrapping ErrLockTimeout
//	}
//	defer release()
func NewGuard(timeout time.Duration) *Guard {
	return &Guard{
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
	}
}

// Acquire enters the critical section. The returned release func must be
// called exactly once; extra calls are ignored.
func (g *Guard) Acquire(ctx context.Context) (release func(), err error) {
	if !g.sem.TryAcquire(1) {
		g.contentions.Add(1)

		waitCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		start := time.Now()
		if err := g.sem.Acquire(waitCtx, 1); err != nil {
			// The caller's own cancellation or deadline is not a lock timeout.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.timeouts.Add(1)
			return nil, &ConcurrencyError{
				Op:     "lock",
				Reason: ErrLockTimeout,
				Detail: "waited " + time.Since(start).Round(time.Millisecond).String(),
			}
		}
	}

	if g.holders.Add(1) > 1 {
		g.races.Add(1)
	}
	g.acquired.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.holders.Add(-1)
			g.sem.Release(1)
		})
	}, nil
}

// Do runs fn inside the critical section and always releases it, even when
// fn panics.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Timeout returns the configured lock wait bound.
func (g *Guard) Timeout() time.Duration {
	return g.timeout
}

// Held reports whether the critical section is currently occupied.
func (g *Guard) Held() bool {
	return g.holders.Load() > 0
}

// Acquisitions returns the number of successful entries.
func (g *Guard) Acquisitions() uint64 {
	return g.acquired.Load()
}

// Contentions returns how many acquisitions had to wait.
func (g *Guard) Contentions() uint64 {
	return g.contentions.Load()
}

// Timeouts returns how many acquisitions gave up.
func (g *Guard) Timeouts() uint64 {
	return g.timeouts.Load()
}

// Races returns how many times more than one holder was observed.
func (g *Guard) Races() uint64 {
	return g.races.Load()
}
