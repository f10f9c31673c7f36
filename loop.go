package frustal

import (
	"context"
	"time"
)

// Event is a closure executed on the host loop.
type Event func()

type Timer interface {
	// Stop prevents the timer's event from running. It reports whether the
	// event was still pending.
	Stop() bool
}

// Host is the single logical thread every core component runs on. Post is
// safe to call from any goroutine; events run one at a time in order.
type Host interface {
	Post(ev Event)
	AfterFunc(d time.Duration, ev Event) Timer
}

// Loop is a channel-backed Host. The owner drains it from its main
// goroutine, either once per frame (Drain) or continuously (Run).
type Loop struct {
	events chan Event
	wake   func()
}

func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Loop{events: make(chan Event, capacity)}
}

// SetWaker installs a function called after every Post, used to interrupt
// a blocking platform event wait. It must be safe for concurrent use.
func (l *Loop) SetWaker(wake func()) {
	l.wake = wake
}

func (l *Loop) Post(ev Event) {
	l.events <- ev
	if l.wake != nil {
		l.wake()
	}
}

type loopTimer struct {
	t       *time.Timer
	stopped bool // only touched on the loop
	fired   bool
}

func (lt *loopTimer) Stop() bool {
	if lt.stopped || lt.fired {
		return false
	}
	lt.stopped = true
	lt.t.Stop()
	return true
}

// AfterFunc posts ev once d has elapsed. A timer stopped on the loop before
// its event runs never runs it, even if the event was already queued.
func (l *Loop) AfterFunc(d time.Duration, ev Event) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped {
				return
			}
			lt.fired = true
			ev()
		})
	})
	return lt
}

// Drain runs every event queued right now and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case ev := <-l.events:
			ev()
			n++
		default:
			return n
		}
	}
}

// Run executes events until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-l.events:
			ev()
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}
