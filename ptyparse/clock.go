package ptyparse

import "time"

// Clock schedules the parser's debounce and pause timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// task is a cancel-and-reschedule timer. Every schedule or cancel bumps
// the generation, so a callback that was already in flight when its timer
// was replaced sees a stale generation and does nothing.
type task struct {
	clock Clock
	timer Timer
	gen   uint64
}

func (t *task) schedule(d time.Duration, f func(gen uint64)) {
	t.cancel()
	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() { f(gen) })
}

func (t *task) cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// fire reports whether the callback for gen is current and marks the task
// as no longer pending.
func (t *task) fire(gen uint64) bool {
	if t.timer == nil || gen != t.gen {
		return false
	}
	t.timer = nil
	return true
}

func (t *task) pending() bool {
	return t.timer != nil
}
