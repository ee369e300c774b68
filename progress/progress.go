// Package progress prints single-line progress reports for long batch jobs.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Tracker tracks and reports progress of a batch operation.
// It is safe for concurrent use by worker goroutines.
type Tracker struct {
	writer         io.Writer
	unit           string
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// unit: plural noun used in the rate, e.g. "chunks"
// total: total number of items to process
// reportInterval: report progress every N items
func NewTracker(writer io.Writer, unit string, total, reportInterval int) *Tracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &Tracker{
		writer:         writer,
		unit:           unit,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *Tracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.lastReported = 0
}

// Update sets the current progress to the specified value.
func (p *Tracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = min(current, p.total)
	p.maybeReport()
}

// Increment increases the current progress by the specified amount.
func (p *Tracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = min(p.current+delta, p.total)
	p.maybeReport()
}

// Current returns the number of items processed so far.
func (p *Tracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish marks the operation as complete and prints final progress.
func (p *Tracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *Tracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// maybeReport must be called with lock held.
func (p *Tracker) maybeReport() {
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// report prints the current progress. Must be called with lock held.
func (p *Tracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(p.current) / s
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f %s/s",
		p.current, p.total, percentage, rate, p.unit)
}
