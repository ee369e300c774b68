package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "chunks", 100, 10)

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	assert.Greater(t, tracker.Elapsed(), time.Duration(0), "elapsed time should be positive")
	assert.Equal(t, 100, tracker.Current())

	output := buf.String()
	assert.Contains(t, output, "100/100", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
	assert.Contains(t, output, "chunks/s", "should show the unit")
}

func TestTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "records", 100, 10)

	tracker.Start()
	tracker.Update(75)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100", "finish should set to total")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should print newline")
}

func TestTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "records", 0, 10)

	tracker.Start()
	tracker.Finish()

	assert.Contains(t, buf.String(), "0/0", "should handle zero total")
}

func TestTracker_IncrementBeyondTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "records", 100, 10)

	tracker.Start()
	tracker.Increment(150)

	assert.Contains(t, buf.String(), "100/100", "should not exceed total")
}

func TestTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "records", 100, 10)

	tracker.Increment(10)
	tracker.Finish()

	assert.Equal(t, "", buf.String(), "should have no output when not started")
	assert.Zero(t, tracker.Elapsed())
}

func TestTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "records", 1000, 100)

	tracker.Start()

	buf.Reset()
	tracker.Update(50)
	assert.Equal(t, "", buf.String(), "should not print under interval")

	buf.Reset()
	tracker.Update(100)
	assert.NotEmpty(t, buf.String(), "should print at interval")

	buf.Reset()
	tracker.Update(250)
	assert.NotEmpty(t, buf.String(), "should print beyond interval")
}

func TestTracker_ConcurrentIncrement(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, "chunks", 1000, 1000)
	tracker.Start()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tracker.Increment(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, tracker.Current())
}
