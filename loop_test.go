package frustal

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopDrainOrder(t *testing.T) {
	l := NewLoop(0)
	var woken atomic.Int32
	l.SetWaker(func() { woken.Add(1) })
	var got []int
	for i := range 5 {
		l.Post(func() { got = append(got, i) })
	}
	if n := l.Drain(); n != 5 {
		t.Fatalf("Drain ran %d events, want 5", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("events ran in order %v", got)
		}
	}
	if woken.Load() != 5 {
		t.Fatalf("waker called %d times, want 5", woken.Load())
	}
	if l.Drain() != 0 {
		t.Fatal("Drain on an empty loop ran something")
	}
}

func TestLoopAfterFunc(t *testing.T) {
	l := NewLoop(16)
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	fired := make(chan struct{})
	stopped := false
	var cancelled Timer
	l.Post(func() {
		cancelled = l.AfterFunc(time.Millisecond, func() { stopped = true })
		if !cancelled.Stop() {
			t.Error("Stop on a pending timer returned false")
		}
		l.AfterFunc(5*time.Millisecond, func() { close(fired) })
	})
	go func() {
		<-fired
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := l.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
	select {
	case <-fired:
	default:
		t.Fatal("timer never fired")
	}
	if stopped {
		t.Fatal("stopped timer fired")
	}
	if cancelled.Stop() {
		t.Fatal("second Stop returned true")
	}
}
