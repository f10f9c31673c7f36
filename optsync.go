package frustal

import (
	"log/slog"
	"slices"
	"time"
)

// Updater applies a batch of changes atomically. Session implements it.
type Updater interface {
	Domain() Domain
	Options() Options
	Update(fn func(d *Domain, o *Options) error) error
}

// OptionsSync debounces textual parameter edits. Every edit is validated
// immediately, but nothing reaches the Updater until edits have stopped
// for the quiet period; then all of them are applied in a single Update.
type OptionsSync struct {
	target Updater
	host   Host
	quiet  time.Duration
	log    *slog.Logger

	timer   Timer
	domain  Domain
	options Options
	dEdits  map[string]string
	oEdits  map[string]string
	applied int
}

func NewOptionsSync(target Updater, host Host, cfg Config) *OptionsSync {
	return &OptionsSync{
		target: target,
		host:   host,
		quiet:  cfg.EditQuiet,
		log:    cfg.logger(),
	}
}

// Pending reports whether edits are waiting to be applied.
func (s *OptionsSync) Pending() bool {
	return len(s.dEdits)+len(s.oEdits) > 0
}

// Applied returns how many batches have been applied so far.
func (s *OptionsSync) Applied() int {
	return s.applied
}

func (s *OptionsSync) snapshot() {
	if s.Pending() {
		return
	}
	s.domain, s.options = s.target.Domain(), s.target.Options()
	s.dEdits = make(map[string]string)
	s.oEdits = make(map[string]string)
}

// Edit records a new value for an Options field.
func (s *OptionsSync) Edit(name, value string) error {
	s.snapshot()
	next := s.options
	if err := next.Set(name, value); err != nil {
		return err
	}
	s.options = next
	s.oEdits[name] = value
	s.reschedule()
	return nil
}

// EditDomain records a new value for one of x, y or scale.
func (s *OptionsSync) EditDomain(name, value string) error {
	s.snapshot()
	next := s.domain
	if err := next.Set(name, value); err != nil {
		return err
	}
	s.domain = next
	s.dEdits[name] = value
	s.reschedule()
	return nil
}

// EditField routes name to EditDomain or Edit.
func (s *OptionsSync) EditField(name, value string) error {
	if slices.Contains(DomainFields, name) {
		return s.EditDomain(name, value)
	}
	return s.Edit(name, value)
}

// Snapshot returns the values the pending edits would produce.
func (s *OptionsSync) Snapshot() (Domain, Options) {
	if !s.Pending() {
		return s.target.Domain(), s.target.Options()
	}
	return s.domain, s.options
}

func (s *OptionsSync) reschedule() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.host.AfterFunc(s.quiet, func() {
		s.timer = nil
		s.Flush()
	})
}

// Flush applies pending edits now. Domain fields are applied before
// options, each group in field order.
func (s *OptionsSync) Flush() error {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.Pending() {
		return nil
	}
	dEdits, oEdits := s.dEdits, s.oEdits
	s.dEdits, s.oEdits = nil, nil
	err := s.target.Update(func(d *Domain, o *Options) error {
		for _, name := range DomainFields {
			if v, ok := dEdits[name]; ok {
				if err := d.Set(name, v); err != nil {
					return err
				}
			}
		}
		for _, name := range OptionFields {
			if v, ok := oEdits[name]; ok {
				if err := o.Set(name, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("edits rejected", "error", err)
		return err
	}
	s.applied++
	s.log.Debug("edits applied", "domain", len(dEdits), "options", len(oEdits))
	return nil
}

// Discard drops pending edits without applying them.
func (s *OptionsSync) Discard() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dEdits, s.oEdits = nil, nil
}
