package frustal

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"
)

type State int

const (
	Idle State = iota
	PreviewPending
	PreviewDone
	FullInProgress
	FullComplete
)

var stateNames = [...]string{
	Idle:           "idle",
	PreviewPending: "preview",
	PreviewDone:    "settling",
	FullInProgress: "rendering",
	FullComplete:   "complete",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Progress describes the current generation for status displays.
type Progress struct {
	Gen     uint64
	State   State
	Done    int
	Total   int
	Preview time.Duration
	Elapsed time.Duration
}

type generation struct {
	id      uint64
	d       Domain
	o       Options
	total   int
	next    int
	started time.Time
	preview time.Duration
}

// Scheduler turns render requests into generations. Each request gets a
// new id and supersedes every earlier generation: results of older
// evaluator calls are dropped when they arrive, without touching the
// surface. All methods must be called on the host loop.
type Scheduler struct {
	host    Host
	eval    Evaluator
	surface Surface
	log     *slog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	chunks       int
	preview      bool
	previewScale int
	settleMargin time.Duration
	chunkYield   time.Duration

	current    uint64
	gen        *generation
	state      State
	pending    Timer
	onProgress func(Progress)
}

func NewScheduler(host Host, eval Evaluator, surface Surface, cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	chunks := cfg.Chunks
	if chunks <= 0 {
		chunks = DefaultConfig().Chunks
	}
	return &Scheduler{
		host:         host,
		eval:         eval,
		surface:      surface,
		log:          cfg.logger(),
		now:          cfg.now(),
		ctx:          ctx,
		cancel:       cancel,
		chunks:       chunks,
		preview:      cfg.Preview,
		previewScale: max(cfg.PreviewScale, 1),
		settleMargin: cfg.SettleMargin,
		chunkYield:   cfg.ChunkYield,
	}
}

// OnProgress installs a callback invoked on every state change and after
// every drawn chunk.
func (s *Scheduler) OnProgress(fn func(Progress)) {
	s.onProgress = fn
}

func (s *Scheduler) State() State {
	return s.state
}

// Current returns the id of the most recently issued generation.
func (s *Scheduler) Current() uint64 {
	return s.current
}

func (s *Scheduler) Progress() Progress {
	p := Progress{Gen: s.current, State: s.state}
	if g := s.gen; g != nil {
		p.Done, p.Total, p.Preview = g.next, g.total, g.preview
		p.Elapsed = s.now().Sub(g.started)
	}
	return p
}

func (s *Scheduler) PreviewEnabled() bool {
	return s.preview
}

// SetPreview toggles the preview pass for subsequent generations.
func (s *Scheduler) SetPreview(on bool) {
	s.preview = on
}

func (s *Scheduler) isCurrent(id uint64) bool {
	return id == s.current
}

func (s *Scheduler) setState(st State) {
	s.state = st
	s.notify()
}

func (s *Scheduler) notify() {
	if s.onProgress != nil {
		s.onProgress(s.Progress())
	}
}

func (s *Scheduler) stopPending() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// RequestRender starts a new generation for d and o and returns its id.
func (s *Scheduler) RequestRender(d Domain, o Options) uint64 {
	s.current++
	gen := &generation{
		id:      s.current,
		d:       d,
		o:       o,
		total:   s.chunks,
		started: s.now(),
	}
	s.gen = gen
	s.stopPending()
	s.log.Debug("render requested", "gen", gen.id, "domain", d.String())
	if s.preview {
		s.setState(PreviewPending)
		s.requestPreview(gen)
	} else {
		s.startFull(gen)
	}
	return gen.id
}

func (s *Scheduler) requestPreview(gen *generation) {
	start := s.now()
	go func() {
		img, err := s.eval.PreviewRender(s.ctx, gen.d, gen.o)
		s.host.Post(func() {
			s.previewDone(gen, start, img, err)
		})
	}()
}

func (s *Scheduler) previewDone(gen *generation, start time.Time, img *image.RGBA, err error) {
	if !s.isCurrent(gen.id) {
		s.log.Debug("stale preview dropped", "gen", gen.id, "current", s.current)
		return
	}
	if err != nil {
		s.abandon(gen, "preview", err)
		return
	}
	s.surface.DrawPreview(img)
	gen.preview = s.now().Sub(start)
	s.setState(PreviewDone)
	s.pending = s.host.AfterFunc(gen.preview+s.settleMargin, func() {
		if !s.isCurrent(gen.id) {
			return
		}
		s.pending = nil
		s.startFull(gen)
	})
}

func (s *Scheduler) startFull(gen *generation) {
	gen.next = 0
	s.setState(FullInProgress)
	s.requestChunk(gen)
}

func (s *Scheduler) requestChunk(gen *generation) {
	index := gen.next
	go func() {
		img, err := s.eval.PartialRender(s.ctx, gen.d, gen.o, gen.total, index)
		s.host.Post(func() {
			s.chunkDone(gen, index, img, err)
		})
	}()
}

func (s *Scheduler) chunkDone(gen *generation, index int, img *image.RGBA, err error) {
	if !s.isCurrent(gen.id) {
		s.log.Debug("stale chunk dropped", "gen", gen.id, "chunk", index, "current", s.current)
		return
	}
	if err != nil {
		s.abandon(gen, fmt.Sprintf("chunk %d", index), err)
		return
	}
	s.surface.DrawChunk(img)
	gen.next = index + 1
	if gen.next == gen.total {
		s.setState(FullComplete)
		s.log.Debug("render complete", "gen", gen.id, "elapsed", s.now().Sub(gen.started))
		return
	}
	s.notify()
	s.pending = s.host.AfterFunc(s.chunkYield, func() {
		if !s.isCurrent(gen.id) {
			return
		}
		s.pending = nil
		s.requestChunk(gen)
	})
}

// abandon terminates a generation after an evaluator failure. Nothing is
// retried: the next request starts over.
func (s *Scheduler) abandon(gen *generation, stage string, err error) {
	s.log.Warn("render abandoned", "gen", gen.id, "stage", stage, "error", err)
	s.setState(Idle)
}

// Last returns the domain and options of the most recent generation.
func (s *Scheduler) Last() (Domain, Options, bool) {
	if s.gen == nil {
		return Domain{}, Options{}, false
	}
	return s.gen.d, s.gen.o, true
}

// Resize reallocates the evaluator and surface buffers and re-renders the
// last requested view.
func (s *Scheduler) Resize(w, h int) error {
	if err := s.eval.Resize(w, h); err != nil {
		return fmt.Errorf("evaluator resize: %w", err)
	}
	s.surface.Resize(w, h)
	s.rerender()
	return nil
}

func (s *Scheduler) ResizePreview(scale int) error {
	if err := s.eval.ResizePreview(scale); err != nil {
		return fmt.Errorf("evaluator preview resize: %w", err)
	}
	s.previewScale = scale
	s.surface.SetPreviewScale(scale)
	s.rerender()
	return nil
}

func (s *Scheduler) PreviewScale() int {
	return s.previewScale
}

func (s *Scheduler) rerender() {
	if d, o, ok := s.Last(); ok {
		s.RequestRender(d, o)
	}
}

// Close invalidates every generation and cancels the context handed to
// evaluator calls.
func (s *Scheduler) Close() {
	s.current++
	s.stopPending()
	s.cancel()
	s.state = Idle
}
