package frustal

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

type countingUpdater struct {
	d       Domain
	o       Options
	updates int
}

func (u *countingUpdater) Domain() Domain   { return u.d }
func (u *countingUpdater) Options() Options { return u.o }

func (u *countingUpdater) Update(fn func(d *Domain, o *Options) error) error {
	d, o := u.d, u.o
	if err := fn(&d, &o); err != nil {
		return err
	}
	u.d, u.o = d, o
	u.updates++
	return nil
}

func TestOptionsSyncDebounce(t *testing.T) {
	s, f := newSessionFixture(t)
	sync := NewOptionsSync(s, f.host, f.host.config())

	for i := 1; i <= 10; i++ {
		if err := sync.Edit(FieldPrecision, strconv.Itoa(100*i)); err != nil {
			t.Fatal(err)
		}
		f.host.advance(100 * time.Millisecond)
	}
	if f.sched.Current() != 0 || s.Options().Precision != DefaultOptions().Precision {
		t.Fatalf("edits applied before the quiet period: gen %d", f.sched.Current())
	}
	if !sync.Pending() {
		t.Fatal("no pending edits")
	}
	if _, o := sync.Snapshot(); o.Precision != 1000 {
		t.Fatalf("pending precision %d, want 1000", o.Precision)
	}

	f.host.advance(200 * time.Millisecond)
	if sync.Applied() != 1 || f.sched.Current() != 1 {
		t.Fatalf("applied %d times, %d generations, want 1 and 1", sync.Applied(), f.sched.Current())
	}
	if s.Options().Precision != 1000 || sync.Pending() {
		t.Fatalf("precision %d pending %v", s.Options().Precision, sync.Pending())
	}
	f.host.advance(time.Second)
	if f.sched.Current() != 1 {
		t.Fatalf("%d generations after settling, want 1", f.sched.Current())
	}
}

func TestOptionsSyncRejectsInvalid(t *testing.T) {
	h := newFakeHost()
	u := &countingUpdater{d: DefaultDomain(), o: DefaultOptions()}
	sync := NewOptionsSync(u, h, h.config())

	tests := []struct {
		name, value string
		want        error
	}{
		{FieldOrder, "1", ErrOutOfRange},
		{FieldReal, "nope", ErrInvalidValue},
		{FieldVariant, "mandelbulb", ErrInvalidValue},
		{"zoom", "2", ErrUnknownField},
		{FieldScale, "-1", ErrInvalidScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := sync.EditField(tt.name, tt.value); !errors.Is(err, tt.want) {
				t.Fatalf("EditField(%q, %q) = %v, want %v", tt.name, tt.value, err, tt.want)
			}
		})
	}
	if sync.Pending() || h.pendingTimers() != 0 {
		t.Fatal("rejected edits were scheduled")
	}
	h.advance(time.Second)
	if u.updates != 0 {
		t.Fatalf("%d updates after rejected edits", u.updates)
	}
}

func TestOptionsSyncFlushBatch(t *testing.T) {
	h := newFakeHost()
	u := &countingUpdater{d: DefaultDomain(), o: DefaultOptions()}
	sync := NewOptionsSync(u, h, h.config())

	edits := [][2]string{
		{FieldX, "0.25"},
		{FieldScale, "0.01"},
		{FieldVariant, "julia"},
		{FieldSmooth, "false"},
		{FieldImaginary, "-0.8"},
	}
	for _, e := range edits {
		if err := sync.EditField(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := sync.Flush(); err != nil {
		t.Fatal(err)
	}
	if u.updates != 1 {
		t.Fatalf("%d updates, want 1", u.updates)
	}
	want := Domain{OriginX: 0.25, Scale: 0.01}
	if u.d != want {
		t.Fatalf("domain %v, want %v", u.d, want)
	}
	if u.o.Variant != Julia || u.o.Smooth || u.o.Imaginary != -0.8 {
		t.Fatalf("options %v", u.o)
	}
	h.advance(time.Second)
	if u.updates != 1 {
		t.Fatal("timer fired after an explicit flush")
	}
	if err := sync.Flush(); err != nil || u.updates != 1 {
		t.Fatalf("empty flush: err %v, updates %d", err, u.updates)
	}
}

func TestOptionsSyncDiscard(t *testing.T) {
	h := newFakeHost()
	u := &countingUpdater{d: DefaultDomain(), o: DefaultOptions()}
	sync := NewOptionsSync(u, h, h.config())
	if err := sync.Edit(FieldLightness, "3"); err != nil {
		t.Fatal(err)
	}
	sync.Discard()
	h.advance(time.Second)
	if u.updates != 0 || sync.Pending() {
		t.Fatal("discarded edit applied")
	}
}
