package frustal

import (
	"math"
	"testing"
	"time"

	"seehuhn.de/go/geom/vec"
)

type zoomCall struct {
	at     vec.Vec2
	factor float64
}

type recordingNavigator struct {
	shifts      []vec.Vec2
	zooms       []zoomCall
	checkpoints int
}

func (n *recordingNavigator) Shift(dx, dy float64) {
	n.shifts = append(n.shifts, vec.Vec2{X: dx, Y: dy})
}

func (n *recordingNavigator) ZoomAt(x, y, factor float64) error {
	n.zooms = append(n.zooms, zoomCall{vec.Vec2{X: x, Y: y}, factor})
	return nil
}

func (n *recordingNavigator) Checkpoint() {
	n.checkpoints++
}

func newGestureFixture() (*GestureController, *recordingNavigator, *fakeHost) {
	h := newFakeHost()
	nav := &recordingNavigator{}
	return NewGestureController(nav, h, h.config()), nav, h
}

func TestGestureDragCoalescing(t *testing.T) {
	g, nav, h := newGestureFixture()
	g.PointerDown(0, 10, 10)
	if !g.State().Active || nav.checkpoints != 1 {
		t.Fatalf("drag not started: %+v, %d checkpoints", g.State(), nav.checkpoints)
	}

	// the first move applies right away
	g.PointerMove(0, 20, 10)
	if len(nav.shifts) != 1 || nav.shifts[0] != (vec.Vec2{X: 10, Y: 0}) {
		t.Fatalf("shifts %v after first move", nav.shifts)
	}

	// moves within the interval collapse into one shift
	for i := range 5 {
		h.advance(2 * time.Millisecond)
		g.PointerMove(0, 21+float64(i), 10+float64(i))
	}
	if len(nav.shifts) != 1 {
		t.Fatalf("moves inside the interval applied early: %v", nav.shifts)
	}
	h.advance(16 * time.Millisecond)
	if len(nav.shifts) != 2 {
		t.Fatalf("%d shifts after the interval, want 2", len(nav.shifts))
	}
	if got, want := nav.shifts[1], (vec.Vec2{X: 5, Y: 4}); got != want {
		t.Fatalf("coalesced shift %v, want %v", got, want)
	}
	if g.State().Last != (vec.Vec2{X: 25, Y: 14}) {
		t.Fatalf("last applied point %v", g.State().Last)
	}

	g.PointerUp(0)
	if g.State().Active {
		t.Fatal("drag still active after release")
	}
	g.PointerMove(0, 100, 100)
	h.advance(time.Second)
	if len(nav.shifts) != 2 {
		t.Fatalf("move after release shifted: %v", nav.shifts)
	}
}

func TestGestureReleaseAppliesPending(t *testing.T) {
	g, nav, h := newGestureFixture()
	g.PointerDown(0, 0, 0)
	g.PointerMove(0, 5, 0)
	g.PointerMove(0, 8, 3)
	if len(nav.shifts) != 1 {
		t.Fatalf("shifts %v before release", nav.shifts)
	}
	g.PointerUp(0)
	if len(nav.shifts) != 2 || nav.shifts[1] != (vec.Vec2{X: 3, Y: 3}) {
		t.Fatalf("shifts %v after release", nav.shifts)
	}
	if h.pendingTimers() != 0 {
		t.Fatalf("%d timers left after release", h.pendingTimers())
	}
}

func TestGesturePinch(t *testing.T) {
	g, nav, _ := newGestureFixture()
	g.TouchStart(Touch{ID: 1, X: 100, Y: 100}, Touch{ID: 2, X: 200, Y: 100})
	if g.State().Second == nil {
		t.Fatal("second pointer not tracked")
	}
	// spread symmetrically around the midpoint
	g.TouchMove(Touch{ID: 1, X: 50, Y: 100}, Touch{ID: 2, X: 250, Y: 100})
	if len(nav.zooms) != 1 {
		t.Fatalf("%d zooms, want 1", len(nav.zooms))
	}
	z := nav.zooms[0]
	if z.factor >= 1 || math.Abs(z.factor-0.5) > 1e-12 {
		t.Fatalf("zoom factor %v, want 0.5", z.factor)
	}
	if z.at != (vec.Vec2{X: 150, Y: 100}) {
		t.Fatalf("zoom anchor %v, want the midpoint", z.at)
	}

	g.TouchMove(Touch{ID: 2, X: 150, Y: 100})
	if len(nav.zooms) != 2 || nav.zooms[1].factor <= 1 {
		t.Fatalf("pinching in: %+v", nav.zooms)
	}
	if len(nav.shifts) != 0 {
		t.Fatalf("pinch shifted: %v", nav.shifts)
	}
}

func TestGesturePinchDegradesToPan(t *testing.T) {
	g, nav, _ := newGestureFixture()
	g.TouchStart(Touch{ID: 1, X: 0, Y: 0})
	g.TouchStart(Touch{ID: 2, X: 100, Y: 0})
	g.TouchMove(Touch{ID: 2, X: 120, Y: 0})
	g.TouchEnd(1)
	st := g.State()
	if !st.Active || st.Second != nil || st.Last != (vec.Vec2{X: 120, Y: 0}) {
		t.Fatalf("state after lifting one finger: %+v", st)
	}
	g.TouchMove(Touch{ID: 2, X: 130, Y: 5})
	if len(nav.shifts) != 1 || nav.shifts[0] != (vec.Vec2{X: 10, Y: 5}) {
		t.Fatalf("shifts %v, want one of (10,5)", nav.shifts)
	}
	g.TouchEnd(2)
	if g.State().Active {
		t.Fatal("still active after last touch ended")
	}
}

func TestGestureCancel(t *testing.T) {
	g, nav, h := newGestureFixture()
	g.PointerDown(0, 0, 0)
	g.PointerMove(0, 1, 0)
	g.PointerMove(0, 4, 0)
	g.Cancel()
	if g.State().Active || h.pendingTimers() != 0 {
		t.Fatalf("cancel left state %+v, %d timers", g.State(), h.pendingTimers())
	}
	if len(nav.shifts) != 2 {
		t.Fatalf("shifts %v, pending move should be applied on cancel", nav.shifts)
	}
	// a fresh press starts a new gesture
	g.PointerDown(0, 50, 50)
	g.PointerMove(0, 60, 50)
	if last := nav.shifts[len(nav.shifts)-1]; last != (vec.Vec2{X: 10, Y: 0}) {
		t.Fatalf("shift after new press %v", last)
	}
}

func TestGestureWheel(t *testing.T) {
	tests := []struct {
		name   string
		deltaY float64
		want   float64
	}{
		{"out", 3, WheelZoomOut},
		{"in", -1, WheelZoomIn},
		{"none", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, nav, _ := newGestureFixture()
			g.Wheel(40, 30, tt.deltaY)
			if tt.want == 0 {
				if len(nav.zooms) != 0 || nav.checkpoints != 0 {
					t.Fatalf("zero delta zoomed: %+v", nav.zooms)
				}
				return
			}
			if len(nav.zooms) != 1 || nav.zooms[0].factor != tt.want {
				t.Fatalf("zooms %+v, want factor %v", nav.zooms, tt.want)
			}
			if nav.zooms[0].at != (vec.Vec2{X: 40, Y: 30}) {
				t.Fatalf("anchor %v", nav.zooms[0].at)
			}
		})
	}
}
