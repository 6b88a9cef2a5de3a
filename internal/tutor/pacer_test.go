package tutor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_ZeroDelayRunsInline(t *testing.T) {
	var p pacer
	ran := false
	p.Schedule(0, func() { ran = true })
	assert.True(t, ran)
	assert.False(t, p.Pending())
}

func TestPacer_Fires(t *testing.T) {
	var p pacer
	done := make(chan struct{})
	p.Schedule(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled task did not run")
	}
	assert.False(t, p.Pending())
}

func TestPacer_CancelDropsTask(t *testing.T) {
	var p pacer
	var runs atomic.Int32
	p.Schedule(10*time.Millisecond, func() { runs.Add(1) })
	require.True(t, p.Pending())

	p.Cancel()
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, runs.Load())
	assert.False(t, p.Flush())
}

func TestPacer_ScheduleReplacesPending(t *testing.T) {
	var p pacer
	var first, second atomic.Int32
	p.Schedule(time.Hour, func() { first.Add(1) })
	p.Schedule(time.Hour, func() { second.Add(1) })

	require.True(t, p.Flush())
	assert.Zero(t, first.Load())
	assert.EqualValues(t, 1, second.Load())

	// Flushed tasks do not fire again.
	assert.False(t, p.Flush())
}
