package pipeline

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_ItemLines(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, 3, newFakeClock())
	tracker.Start()

	tracker.Item("L01", "embedded")
	tracker.Item("L02", "cached")
	tracker.Item("L03", "FAILED")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "[1/3] L01: embedded", lines[0])
	assert.Equal(t, "[2/3] L02: cached", lines[1])
	assert.Equal(t, "[3/3] L03: FAILED", lines[2])
}

func TestTracker_BatchLines(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, 5, newFakeClock())
	tracker.Start()

	tracker.Batch(1, 2, "inserted")
	tracker.Batch(2, 2, "FAILED")
	tracker.Batch(3, 1, "inserted")

	out := buf.String()
	assert.Contains(t, out, "batch 1: 2 vectors inserted")
	assert.Contains(t, out, "batch 2: 2 vectors FAILED")
	assert.Contains(t, out, "batch 3: 1 vectors inserted")
}

func TestTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	clock := newFakeClock()
	tracker := NewTracker(&buf, 2, clock)
	tracker.Start()

	tracker.Item("L01", "embedded")
	clock.now = clock.now.Add(4 * time.Second)
	tracker.Item("L02", "embedded")
	tracker.Finish()

	assert.Equal(t, 4*time.Second, tracker.Elapsed())
	assert.Contains(t, buf.String(), "processed 2/2 in 4s (0.5 items/s)")
}

func TestTracker_IgnoredBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, 2, newFakeClock())

	tracker.Item("L01", "embedded")
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Equal(t, time.Duration(0), tracker.Elapsed())
}
