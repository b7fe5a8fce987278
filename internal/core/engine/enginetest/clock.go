// Package enginetest provides a manually advanced clock for driving the engine in tests.
package enginetest

import (
	"sync"
	"time"

	"rangetimer/internal/core/engine"
)

// Clock is an engine.Clock whose time only moves when Advance is called.
// Callbacks run on the goroutine calling Advance, never while its lock is held.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*timer
}

type timer struct {
	clock *Clock
	due   time.Time
	seq   uint64
	fn    func()
	done  bool
}

// NewClock creates a clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current manual time.
func (clock *Clock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

// AfterFunc schedules fn to run once the clock is advanced past delay.
func (clock *Clock) AfterFunc(delay time.Duration, fn func()) engine.Timer {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	if delay < 0 {
		delay = 0
	}
	clock.seq++
	scheduled := &timer{clock: clock, due: clock.now.Add(delay), seq: clock.seq, fn: fn}
	clock.timers = append(clock.timers, scheduled)
	return scheduled
}

// Advance moves time forward by delta, firing due callbacks in due order.
// Callbacks scheduled while advancing run too when they fall inside the window.
func (clock *Clock) Advance(delta time.Duration) {
	clock.mu.Lock()
	target := clock.now.Add(delta)
	for {
		next := clock.nextDueLocked(target)
		if next == nil {
			break
		}
		next.done = true
		if next.due.After(clock.now) {
			clock.now = next.due
		}
		clock.mu.Unlock()
		next.fn()
		clock.mu.Lock()
	}
	clock.now = target
	clock.compactLocked()
	clock.mu.Unlock()
}

// Pending returns the number of callbacks that have not fired or been stopped.
func (clock *Clock) Pending() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	count := 0
	for _, scheduled := range clock.timers {
		if !scheduled.done {
			count++
		}
	}
	return count
}

func (clock *Clock) nextDueLocked(target time.Time) *timer {
	var next *timer
	for _, scheduled := range clock.timers {
		if scheduled.done || scheduled.due.After(target) {
			continue
		}
		if next == nil || scheduled.due.Before(next.due) || (scheduled.due.Equal(next.due) && scheduled.seq < next.seq) {
			next = scheduled
		}
	}
	return next
}

func (clock *Clock) compactLocked() {
	live := clock.timers[:0]
	for _, scheduled := range clock.timers {
		if !scheduled.done {
			live = append(live, scheduled)
		}
	}
	clock.timers = live
}

// Stop cancels the callback. It reports whether the call prevented it from firing.
func (scheduled *timer) Stop() bool {
	scheduled.clock.mu.Lock()
	defer scheduled.clock.mu.Unlock()
	if scheduled.done {
		return false
	}
	scheduled.done = true
	return true
}
