package pipeline

import (
	"fmt"
	"io"
	"time"
)

// Tracker reports per-item and per-batch pipeline progress to a writer
// (typically os.Stderr). It is owned by a single goroutine, like
// everything else in a run.
type Tracker struct {
	writer    io.Writer
	total     int
	current   int
	clock     Clock
	startTime time.Time
	started   bool
}

// NewTracker creates a progress tracker for total items.
func NewTracker(writer io.Writer, total int, clock Clock) *Tracker {
	if clock == nil {
		clock = NewClock()
	}
	return &Tracker{
		writer: writer,
		total:  total,
		clock:  clock,
	}
}

// Start begins tracking progress.
func (t *Tracker) Start() {
	t.startTime = t.clock.Now()
	t.started = true
	t.current = 0
}

// Item records one processed item and prints a progress line:
//
//	[3/120] L03: embedded
func (t *Tracker) Item(id, status string) {
	if !t.started {
		return
	}
	t.current++
	fmt.Fprintf(t.writer, "[%d/%d] %s: %s\n", t.current, t.total, id, status)
}

// Batch records a processed batch of count items and prints a line:
//
//	batch 2: 100 vectors inserted
func (t *Tracker) Batch(number, count int, status string) {
	if !t.started {
		return
	}
	t.current += count
	if t.current > t.total {
		t.current = t.total
	}
	fmt.Fprintf(t.writer, "batch %d: %d vectors %s\n", number, count, status)
}

// Finish prints the elapsed time and throughput.
func (t *Tracker) Finish() {
	if !t.started {
		return
	}
	elapsed := t.Elapsed()
	rate := 0.0
	if seconds := elapsed.Seconds(); seconds > 0 {
		rate = float64(t.current) / seconds
	}
	fmt.Fprintf(t.writer, "processed %d/%d in %v (%.1f items/s)\n",
		t.current, t.total, elapsed.Round(time.Millisecond), rate)
}

// Elapsed returns the time since Start was called.
func (t *Tracker) Elapsed() time.Duration {
	if !t.started {
		return 0
	}
	return t.clock.Now().Sub(t.startTime)
}
