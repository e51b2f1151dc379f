// Package coordinator serialises access to shared parser state and accounts
// for concurrent emergency requests.
//
// It combines four primitives:
//
//   - Guard: mutual exclusion with contention counting and a bounded wait
//   - Queue: bounded FIFO that rejects instead of blocking when full
//   - Counter: atomic monotonic counter used to mint emergency identifiers
//   - Tracker: in-flight and peak accounting with guaranteed release
//
// A Reporter publishes periodic ConcurrencyStats snapshots to a StatsSink.
package coordinator

import (
	"log/slog"
	"time"
)

// Options configures a Coordinator.
type Options struct {
	QueueCapacity  int           // default DefaultQueueCapacity
	LockTimeout    time.Duration // 0 waits on the caller's context only
	MaxInFlight    int           // 0 disables admission control
	InitialCounter uint64
	Logger         *slog.Logger
}

// ConcurrencyStats is a point-in-time view of the coordinator counters.
type ConcurrencyStats struct {
	TotalRequests    uint64    `json:"totalRequests"`
	ConcurrentPeak   int64     `json:"concurrentPeaks"`
	RaceConditions   uint64    `json:"raceConditions"`
	QueueOverflows   uint64    `json:"queueOverflows"`
	LockContentions  uint64    `json:"lockContentions"`
	LockTimeouts     uint64    `json:"lockTimeouts"`
	RejectedRequests uint64    `json:"rejectedRequests"`
	CurrentInFlight  int64     `json:"currentActiveRequests"`
	ParserUsageCount uint64    `json:"parserUsageCount"`
	QueueLength      int       `json:"queueLength"`
	QueueCapacity    int       `json:"queueCapacity"`
	EmergencyCounter uint64    `json:"emergencyAlertCounter"`
	Timestamp        time.Time `json:"timestamp"`
}

// StatsSink receives snapshots, typically a metrics collector.
type StatsSink interface {
	Publish(stats ConcurrencyStats)
}

// Coordinator owns the shared concurrency primitives of one process.
type Coordinator struct {
	guard   *Guard
	queue   *Queue
	counter *Counter
	tracker *Tracker
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a coordinator from opts.
func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		guard:   NewGuard(opts.LockTimeout),
		queue:   NewQueue(opts.QueueCapacity),
		counter: NewCounter(opts.InitialCounter),
		tracker: NewTracker(opts.MaxInFlight),
		logger:  logger.With("component", "coordinator"),
		now:     time.Now,
	}
}

// Guard returns the critical-section guard.
func (c *Coordinator) Guard() *Guard { return c.guard }

// Queue returns the bounded request queue.
func (c *Coordinator) Queue() *Queue { return c.queue }

// Counter returns the emergency identifier counter.
func (c *Coordinator) Counter() *Counter { return c.counter }

// Tracker returns the in-flight tracker.
func (c *Coordinator) Tracker() *Tracker { return c.tracker }

// NextID mints a new emergency identifier.
func (c *Coordinator) NextID() string {
	return c.counter.MintEmergencyID(c.now())
}

// Enqueue adds message to the queue, logging overflows.
func (c *Coordinator) Enqueue(message string) (Receipt, error) {
	receipt, err := c.queue.Enqueue(message)
	if err != nil {
		c.logger.Warn("request queue overflow",
			"capacity", c.queue.Cap(),
			"overflows", c.queue.Overflows(),
		)
	}
	return receipt, err
}

// Snapshot returns the current counters.
func (c *Coordinator) Snapshot() ConcurrencyStats {
	return ConcurrencyStats{
		TotalRequests:    c.tracker.Total(),
		ConcurrentPeak:   c.tracker.Peak(),
		RaceConditions:   c.guard.Races(),
		QueueOverflows:   c.queue.Overflows(),
		LockContentions:  c.guard.Contentions(),
		LockTimeouts:     c.guard.Timeouts(),
		RejectedRequests: c.tracker.Rejected(),
		CurrentInFlight:  c.tracker.Current(),
		ParserUsageCount: c.guard.Acquisitions(),
		QueueLength:      c.queue.Len(),
		QueueCapacity:    c.queue.Cap(),
		EmergencyCounter: c.counter.Value(),
		Timestamp:        c.now(),
	}
}
