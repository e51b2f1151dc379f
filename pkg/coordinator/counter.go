package coordinator

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Counter is a monotonic shared counter. Each Next is one indivisible
// increment, so K concurrent calls always advance it by exactly K.
type Counter struct {
	value atomic.Uint64
}

// NewCounter returns a counter starting at initial.
func NewCounter(initial uint64) *Counter {
	c := &Counter{}
	c.value.Store(initial)
	return c
}

// Next increments the counter and returns the new value.
func (c *Counter) Next() uint64 {
	return c.value.Add(1)
}

// Value returns the current value.
func (c *Counter) Value() uint64 {
	return c.value.Load()
}

// MintEmergencyID returns a fresh identifier of the form EMG-<n>-<unixMillis>.
func (c *Counter) MintEmergencyID(now time.Time) string {
	return FormatEmergencyID(c.Next(), now)
}

// FormatEmergencyID formats an emergency identifier.
func FormatEmergencyID(n uint64, now time.Time) string {
	return fmt.Sprintf("EMG-%d-%d", n, now.UnixMilli())
}
