package coordinator

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Tracker counts in-flight requests and remembers the peak.
//
// # Algorithm
//
//  1. Atomically increment the in-flight counter
//  2. If a limit is set and exceeded: decrement and reject
//  3. Raise the peak with a compare-and-swap loop
//  4. The returned done func decrements the counter exactly once
//
// # Thread Safety
//
// Tracker is lock-free and thread-safe using atomic operations.
type Tracker struct {
	limit    int64 // 0 means unlimited
	current  atomic.Int64
	peak     atomic.Int64
	total    atomic.Uint64
	rejected atomic.Uint64
}

// NewTracker creates a tracker. limit <= 0 disables admission control.
//
// Example:
//
//	tr := NewTracker(0)
//	done, err := tr.Begin()
//	if err != nil {
//	    return err
//	}
//	defer done()
func NewTracker(limit int) *Tracker {
	if limit < 0 {
		limit = 0
	}
	return &Tracker{limit: int64(limit)}
}

// Begin admits one request. On success the caller MUST call done, normally
// with defer; done may be called more than once.
func (t *Tracker) Begin() (done func(), err error) {
	current := t.current.Add(1)

	if t.limit > 0 && current > t.limit {
		t.current.Add(-1)
		t.rejected.Add(1)
		return nil, &ConcurrencyError{
			Op:     "admit",
			Reason: ErrTooManyInFlight,
			Detail: fmt.Sprintf("limit %d", t.limit),
		}
	}

	t.total.Add(1)
	for {
		peak := t.peak.Load()
		if current <= peak || t.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { t.current.Add(-1) })
	}, nil
}

// Current returns the number of in-flight requests.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Peak returns the highest in-flight count observed.
func (t *Tracker) Peak() int64 {
	return t.peak.Load()
}

// Total returns the number of admitted requests.
func (t *Tracker) Total() uint64 {
	return t.total.Load()
}

// Rejected returns the number of requests turned away by the limit.
func (t *Tracker) Rejected() uint64 {
	return t.rejected.Load()
}

// Limit returns the admission limit, 0 when unlimited.
func (t *Tracker) Limit() int64 {
	return t.limit
}

// Remaining returns the free admission slots, -1 when unlimited.
func (t *Tracker) Remaining() int64 {
	if t.limit == 0 {
		return -1
	}
	remaining := t.limit - t.current.Load()
	if remaining < 0 {
		return 0
	}
	return remaining
}
