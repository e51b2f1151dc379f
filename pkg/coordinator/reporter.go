package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// QueueConsumer handles entries drained from the queue.
type QueueConsumer interface {
	Consume(ctx context.Context, entries []QueueEntry) error
}

// ReporterConfig configures a Reporter.
type ReporterConfig struct {
	// Schedule is a cron expression or descriptor, e.g. "@every 30s".
	// Empty disables the reporter.
	Schedule string

	// DrainBatch is the maximum number of entries handed to the consumer
	// per run. 0 drains everything.
	DrainBatch int
}

// Reporter periodically publishes coordinator snapshots and drains the queue.
type Reporter struct {
	coord    *Coordinator
	sink     StatsSink
	consumer QueueConsumer
	config   ReporterConfig
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
	runs     int
}

// NewReporter creates a reporter. sink and consumer may be nil.
func NewReporter(coord *Coordinator, sink StatsSink, consumer QueueConsumer, cfg ReporterConfig) *Reporter {
	return &Reporter{
		coord:    coord,
		sink:     sink,
		consumer: consumer,
		config:   cfg,
		cron:     cron.New(),
		logger:   coord.logger.With("component", "coordinator.reporter"),
	}
}

// Start schedules reporting until ctx ends or Stop is called.
//
// Common schedules:
//   - "@every 30s"   - every 30 seconds
//   - "*/5 * * * *"  - every 5 minutes
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.Schedule == "" {
		r.logger.Info("stats schedule not configured, skipping reporter")
		return nil
	}
	if r.running {
		return nil
	}

	if _, err := cron.ParseStandard(r.config.Schedule); err != nil {
		return fmt.Errorf("invalid stats schedule %q: %w", r.config.Schedule, err)
	}

	if _, err := r.cron.AddFunc(r.config.Schedule, func() { r.Report(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule stats reporting: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("stats reporter started", "schedule", r.config.Schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Report publishes one snapshot and hands queued entries to the consumer.
func (r *Reporter) Report(ctx context.Context) {
	snap := r.coord.Snapshot()
	if r.sink != nil {
		r.sink.Publish(snap)
	}

	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	r.logger.Debug("concurrency snapshot",
		"total_requests", snap.TotalRequests,
		"in_flight", snap.CurrentInFlight,
		"peak", snap.ConcurrentPeak,
		"queue_length", snap.QueueLength,
		"queue_overflows", snap.QueueOverflows,
		"lock_contentions", snap.LockContentions,
	)

	if r.consumer == nil {
		return
	}
	entries := r.coord.Queue().Drain(r.config.DrainBatch)
	if len(entries) == 0 {
		return
	}
	if err := r.consumer.Consume(ctx, entries); err != nil {
		r.logger.Error("queue consumer failed", "entries", len(entries), "error", err)
	}
}

// Stop halts scheduling and waits for a running report to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	<-r.cron.Stop().Done()
	r.logger.Info("stats reporter stopped")
}

// IsRunning reports whether the schedule is active.
func (r *Reporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Runs returns how many reports have been produced.
func (r *Reporter) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// NextRun returns the next scheduled report time, or nil when idle.
func (r *Reporter) NextRun() *time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
