package frustal

import (
	"fmt"
	"image"
	"log/slog"
)

// Session is the top-level controller. It owns the Domain and Options,
// validates every mutation and requests a new generation after each one.
// All methods must be called on the host loop.
type Session struct {
	log      *slog.Logger
	sched    *Scheduler
	domain   Domain
	options  Options
	size     image.Point
	history  History
	armed    bool
	onChange []func(Domain, Options)
}

func NewSession(sched *Scheduler, w, h int, cfg Config) *Session {
	return &Session{
		log:     cfg.logger(),
		sched:   sched,
		domain:  DefaultDomain(),
		options: DefaultOptions(),
		size:    image.Pt(w, h),
	}
}

func (s *Session) Domain() Domain {
	return s.domain
}

func (s *Session) Options() Options {
	return s.options
}

func (s *Session) Size() image.Point {
	return s.size
}

// OnChange registers a hook called whenever the domain or options change,
// whether by gesture, edit, preset or undo.
func (s *Session) OnChange(fn func(Domain, Options)) {
	s.onChange = append(s.onChange, fn)
}

func (s *Session) changed() {
	for _, fn := range s.onChange {
		fn(s.domain, s.options)
	}
	s.RequestRender()
}

// RequestRender issues a generation for the current state.
func (s *Session) RequestRender() uint64 {
	return s.sched.RequestRender(s.domain, s.options)
}

// Checkpoint starts an undoable view change. The domain is recorded by the
// first Shift or ZoomAt that actually changes it, so a gesture that moves
// nothing leaves no undo entry.
func (s *Session) Checkpoint() {
	s.armed = true
}

func (s *Session) record(prev Domain) {
	s.armed = false
	s.history.Dispatch(func() UndoFunc {
		return func() { s.domain = prev }
	})
}

// mutate applies a view change and records an armed checkpoint if the
// domain moved.
func (s *Session) mutate(prev Domain) {
	if s.domain == prev {
		return
	}
	if s.armed {
		s.record(prev)
	}
	s.changed()
}

func (s *Session) Undo() bool {
	s.armed = false
	if !s.history.Undo() {
		return false
	}
	s.changed()
	return true
}

func (s *Session) Shift(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	prev := s.domain
	s.domain.Shift(dx, dy, s.size.X, s.size.Y)
	s.mutate(prev)
}

func (s *Session) ZoomAt(x, y, factor float64) error {
	prev := s.domain
	if err := s.domain.ZoomAt(x, y, factor, s.size.X, s.size.Y); err != nil {
		return err
	}
	s.mutate(prev)
	return nil
}

// ZoomCenter zooms around the middle of the canvas.
func (s *Session) ZoomCenter(factor float64) error {
	return s.ZoomAt(float64(s.size.X)/2, float64(s.size.Y)/2, factor)
}

func (s *Session) SetDomain(d Domain) error {
	return s.Update(func(dp *Domain, _ *Options) error {
		return dp.SetAbsolute(d.OriginX, d.OriginY, d.Scale)
	})
}

func (s *Session) SetOption(name, value string) error {
	return s.Update(func(_ *Domain, o *Options) error {
		return o.Set(name, value)
	})
}

// Update applies fn to copies of the domain and options. If fn succeeds
// and both results are valid they replace the current state and exactly
// one generation is requested; otherwise nothing changes.
func (s *Session) Update(fn func(d *Domain, o *Options) error) error {
	d, o := s.domain, s.options
	if err := fn(&d, &o); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return err
	}
	if d != s.domain {
		s.record(s.domain)
	}
	s.domain, s.options = d, o
	s.changed()
	return nil
}

func (s *Session) ApplyPreset(p Preset) error {
	err := s.Update(func(d *Domain, o *Options) error {
		*d, *o = p.Domain, p.Options
		return nil
	})
	if err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	s.log.Info("preset applied", "name", p.Name)
	return nil
}

// Resize records the new canvas size and lets the scheduler reallocate its
// buffers; the domain itself is resolution independent.
func (s *Session) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("resize %dx%d: %w", w, h, ErrOutOfRange)
	}
	if s.size == image.Pt(w, h) {
		return nil
	}
	if err := s.sched.Resize(w, h); err != nil {
		return err
	}
	s.size = image.Pt(w, h)
	if _, _, ok := s.sched.Last(); !ok {
		s.RequestRender()
	}
	return nil
}
