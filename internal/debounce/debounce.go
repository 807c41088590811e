// Package debounce provides a cancellable, fire-once scheduled task.
//
// Every Arm supersedes the previous one: only the last call in a burst runs,
// and only after its own delay has elapsed without a newer Arm or a Cancel.
package debounce

import (
	"sync"
	"time"
)

// Task schedules at most one pending function at a time.
// The zero value is not usable; call New.
type Task struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// New returns a Task whose Arm uses delay. Negative delays are treated as 0.
func New(delay time.Duration) *Task {
	if delay < 0 {
		delay = 0
	}
	return &Task{delay: delay}
}

// Delay returns the default delay used by Arm.
func (t *Task) Delay() time.Duration { return t.delay }

// Arm schedules fn after the default delay, cancelling anything pending.
func (t *Task) Arm(fn func()) { t.ArmAfter(t.delay, fn) }

// ArmAfter schedules fn after d, cancelling anything pending. fn runs on its
// own goroutine.
func (t *Task) ArmAfter(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.seq++
	armed := t.seq
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		// A newer Arm or a Cancel happened after this timer already fired.
		if armed != t.seq || t.timer == nil {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending function, if any, and reports whether one was
// pending.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	pending := t.timer != nil
	t.stopLocked()
	t.seq++
	return pending
}

// Pending reports whether a function is armed and has not fired yet.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Task) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
