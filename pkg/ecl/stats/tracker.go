// Package stats aggregates parser statistics over the lifetime of a process.
package stats

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the accumulated statistics.
type Snapshot struct {
	TotalCommandsParsed uint64            `json:"totalCommandsParsed"`
	Successful          uint64            `json:"successful"`
	Failed              uint64            `json:"failed"`
	SuccessRate         float64           `json:"successRate"`        // percent, 0 when nothing parsed
	AverageParseTimeMs  float64           `json:"averageParseTimeMs"` // mean over all parses
	ByCommandType       map[string]uint64 `json:"byCommandType"`
	ErrorsByStage       map[string]uint64 `json:"errorsByStage"`
	LastParsedAt        time.Time         `json:"lastParsedAt,omitzero"`
}

// Observation describes a single parse.
type Observation struct {
	Success       bool
	CommandType   string // empty when no command was recognised
	Duration      time.Duration
	ErrorsByStage map[string]int
}

// Tracker accumulates observations. It is safe for concurrent use.
type Tracker struct {
	mu            sync.Mutex
	total         uint64
	successful    uint64
	totalDuration time.Duration
	byCommand     map[string]uint64
	byStage       map[string]uint64
	last          time.Time
	now           func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byCommand: make(map[string]uint64),
		byStage:   make(map[string]uint64),
		now:       time.Now,
	}
}

// Record adds one observation.
func (t *Tracker) Record(obs Observation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if obs.Success {
		t.successful++
	}
	t.totalDuration += obs.Duration
	if obs.CommandType != "" {
		t.byCommand[obs.CommandType]++
	}
	for stage, n := range obs.ErrorsByStage {
		t.byStage[stage] += uint64(n)
	}
	t.last = t.now()
}

// Snapshot returns a copy of the current statistics.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		TotalCommandsParsed: t.total,
		Successful:          t.successful,
		Failed:              t.total - t.successful,
		ByCommandType:       make(map[string]uint64, len(t.byCommand)),
		ErrorsByStage:       make(map[string]uint64, len(t.byStage)),
		LastParsedAt:        t.last,
	}
	if t.total > 0 {
		s.SuccessRate = float64(t.successful) / float64(t.total) * 100
		s.AverageParseTimeMs = float64(t.totalDuration) / float64(t.total) / float64(time.Millisecond)
	}
	for k, v := range t.byCommand {
		s.ByCommandType[k] = v
	}
	for k, v := range t.byStage {
		s.ErrorsByStage[k] = v
	}
	return s
}

// Reset clears all statistics.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = 0
	t.successful = 0
	t.totalDuration = 0
	t.byCommand = make(map[string]uint64)
	t.byStage = make(map[string]uint64)
	t.last = time.Time{}
}
