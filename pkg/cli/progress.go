package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress is a single-line progress bar. It is safe for concurrent use.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	total   int
	done    int
	failed  int
	started time.Time
}

// NewProgress creates a progress bar writing to w. A nil w discards output.
func NewProgress(w io.Writer, label string) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{w: w, label: label}
}

// Start resets the bar for total units of work.
func (p *Progress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.failed = 0
	p.started = time.Now()
	p.render()
}

// Done records one finished unit; ok is false for a failed one.
func (p *Progress) Done(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if !ok {
		p.failed++
	}
	p.render()
}

// Counts returns the finished and failed units.
func (p *Progress) Counts() (done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

// Finish ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.render()
	fmt.Fprintf(p.w, " %s\n", time.Since(p.started).Round(time.Millisecond))
}

func (p *Progress) render() {
	if p.total <= 0 {
		return
	}
	filled := barWidth * p.done / p.total
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	fmt.Fprintf(p.w, "\r%s [%s] %d/%d", p.label, bar, p.done, p.total)
	if p.failed > 0 {
		fmt.Fprintf(p.w, " (%d failed)", p.failed)
	}
}
