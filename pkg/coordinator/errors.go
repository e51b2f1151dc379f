package coordinator

import (
	"errors"
	"fmt"
)

// Sentinel reasons wrapped by ConcurrencyError. Match them with errors.Is.
var (
	ErrQueueFull       = errors.New("queue full")
	ErrLockTimeout     = errors.New("lock wait timed out")
	ErrTooManyInFlight = errors.New("too many requests in flight")
)

// ConcurrencyError reports a coordination failure: a full queue, a lock that
// could not be acquired in time, or an in-flight limit.
type ConcurrencyError struct {
	Op     string // "enqueue", "lock" or "admit"
	Reason error
	Detail string
}

// Error implements the error interface.
func (e *ConcurrencyError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("concurrency error during %s: %v (%s)", e.Op, e.Reason, e.Detail)
	}
	return fmt.Sprintf("concurrency error during %s: %v", e.Op, e.Reason)
}

// Unwrap returns the sentinel reason.
func (e *ConcurrencyError) Unwrap() error {
	return e.Reason
}

// IsConcurrencyError reports whether err is or wraps a *ConcurrencyError.
func IsConcurrencyError(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}
