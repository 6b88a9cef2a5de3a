package tutor

import (
	"sync"
	"time"
)

// pacer runs at most one delayed task. Scheduling or cancelling discards
// whatever was pending.
type pacer struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
}

// Schedule runs fn after d. A non-positive d runs fn on the caller's
// goroutine before returning.
func (p *pacer) Schedule(d time.Duration, fn func()) {
	p.mu.Lock()
	p.stopLocked()
	if d <= 0 {
		p.mu.Unlock()
		fn()
		return
	}
	gen := p.gen
	p.pending = fn
	p.timer = time.AfterFunc(d, func() {
		if f := p.take(gen); f != nil {
			f()
		}
	})
	p.mu.Unlock()
}

// Flush runs the pending task now. It reports whether there was one.
func (p *pacer) Flush() bool {
	p.mu.Lock()
	f := p.pending
	p.stopLocked()
	p.mu.Unlock()
	if f == nil {
		return false
	}
	f()
	return true
}

// Cancel drops the pending task, if any.
func (p *pacer) Cancel() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

// Pending reports whether a task is waiting to run.
func (p *pacer) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

func (p *pacer) take(gen uint64) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.pending == nil {
		return nil
	}
	f := p.pending
	p.pending = nil
	p.timer = nil
	return f
}

func (p *pacer) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = nil
	p.pending = nil
	p.gen++
}
