package frustal

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeHost is a Host driven by the test goroutine with a virtual clock.
// Posts may come from any goroutine; timers fire only from advance.
type fakeHost struct {
	events chan Event
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	due     time.Time
	ev      Event
	stopped bool
	fired   bool
}

func (ft *fakeTimer) Stop() bool {
	if ft.stopped || ft.fired {
		return false
	}
	ft.stopped = true
	return true
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		events: make(chan Event, 256),
		now:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (h *fakeHost) Post(ev Event) {
	h.events <- ev
}

func (h *fakeHost) AfterFunc(d time.Duration, ev Event) Timer {
	ft := &fakeTimer{due: h.now.Add(d), ev: ev}
	h.timers = append(h.timers, ft)
	return ft
}

func (h *fakeHost) Now() time.Time {
	return h.now
}

func (h *fakeHost) config() Config {
	cfg := DefaultConfig()
	cfg.Logger = quietLogger()
	cfg.Now = h.Now
	return cfg
}

// runNext waits for one posted event and runs it.
func (h *fakeHost) runNext(t *testing.T) {
	t.Helper()
	select {
	case ev := <-h.events:
		ev()
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a posted event")
	}
}

// advance moves the clock forward, firing due timers in order.
func (h *fakeHost) advance(d time.Duration) {
	target := h.now.Add(d)
	for {
		var next *fakeTimer
		for _, ft := range h.timers {
			if ft.stopped || ft.fired || ft.due.After(target) {
				continue
			}
			if next == nil || ft.due.Before(next.due) {
				next = ft
			}
		}
		if next == nil {
			break
		}
		h.now = next.due
		next.fired = true
		next.ev()
	}
	h.now = target
	h.timers = slices.DeleteFunc(h.timers, func(ft *fakeTimer) bool {
		return ft.stopped || ft.fired
	})
}

func (h *fakeHost) pendingTimers() int {
	n := 0
	for _, ft := range h.timers {
		if !ft.stopped && !ft.fired {
			n++
		}
	}
	return n
}

type callKind int

const (
	previewCall callKind = iota
	chunkCall
)

type evalResult struct {
	img *image.RGBA
	err error
}

type evalCall struct {
	kind  callKind
	d     Domain
	o     Options
	total int
	index int
	reply chan evalResult
}

// finish completes the call with a solid image covering r.
func (c *evalCall) finish(r image.Rectangle) {
	c.reply <- evalResult{img: image.NewRGBA(r)}
}

func (c *evalCall) fail(err error) {
	c.reply <- evalResult{err: err}
}

var errEvalClosed = errors.New("evaluator closed")

// gatedEvaluator hands every call to the test and blocks until the test
// answers it.
type gatedEvaluator struct {
	calls  chan *evalCall
	done   chan struct{}
	w, h   int
	resize []image.Point
	scales []int

	// resizeErr, when set, fails every Resize.
	resizeErr error
}

func newGatedEvaluator(t *testing.T, w, h int) *gatedEvaluator {
	e := &gatedEvaluator{
		calls: make(chan *evalCall),
		done:  make(chan struct{}),
		w:     w,
		h:     h,
	}
	t.Cleanup(func() { close(e.done) })
	return e
}

func (e *gatedEvaluator) do(c *evalCall) (*image.RGBA, error) {
	c.reply = make(chan evalResult, 1)
	select {
	case e.calls <- c:
	case <-e.done:
		return nil, errEvalClosed
	}
	select {
	case r := <-c.reply:
		return r.img, r.err
	case <-e.done:
		return nil, errEvalClosed
	}
}

func (e *gatedEvaluator) PreviewRender(ctx context.Context, d Domain, o Options) (*image.RGBA, error) {
	return e.do(&evalCall{kind: previewCall, d: d, o: o})
}

func (e *gatedEvaluator) PartialRender(ctx context.Context, d Domain, o Options, total, index int) (*image.RGBA, error) {
	return e.do(&evalCall{kind: chunkCall, d: d, o: o, total: total, index: index})
}

func (e *gatedEvaluator) Resize(w, h int) error {
	if e.resizeErr != nil {
		return e.resizeErr
	}
	e.w, e.h = w, h
	e.resize = append(e.resize, image.Pt(w, h))
	return nil
}

func (e *gatedEvaluator) ResizePreview(scale int) error {
	e.scales = append(e.scales, scale)
	return nil
}

func (e *gatedEvaluator) Snapshot() (Domain, Options) {
	return Domain{}, Options{}
}

func (e *gatedEvaluator) next(t *testing.T) *evalCall {
	t.Helper()
	select {
	case c := <-e.calls:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for an evaluator call")
		return nil
	}
}

func (e *gatedEvaluator) expectNone(t *testing.T) {
	t.Helper()
	select {
	case c := <-e.calls:
		t.Fatalf("unexpected evaluator call %+v", *c)
	case <-time.After(20 * time.Millisecond):
	}
}

// recordingSurface remembers what was drawn, in order.
type recordingSurface struct {
	previews int
	chunks   []image.Rectangle
	sizes    []image.Point
	scale    int
}

func (s *recordingSurface) Resize(w, h int) {
	s.sizes = append(s.sizes, image.Pt(w, h))
}

func (s *recordingSurface) SetPreviewScale(scale int) {
	s.scale = scale
}

func (s *recordingSurface) DrawPreview(img *image.RGBA) {
	s.previews++
}

func (s *recordingSurface) DrawChunk(img *image.RGBA) {
	s.chunks = append(s.chunks, img.Bounds())
}

func (s *recordingSurface) draws() int {
	return s.previews + len(s.chunks)
}
