package frustal

import (
	"time"

	"seehuhn.de/go/geom/vec"
)

const (
	WheelZoomOut = 1.5
	WheelZoomIn  = 2.0 / 3.0
)

// Navigator is what the gesture controller drives.
type Navigator interface {
	Shift(dx, dy float64)
	ZoomAt(x, y, factor float64) error
	Checkpoint()
}

// Touch is one contact point of a touch event.
type Touch struct {
	ID   int
	X, Y float64
}

func (t Touch) pos() vec.Vec2 {
	return vec.Vec2{X: t.X, Y: t.Y}
}

// DragState is the transient state of a pan or pinch gesture.
type DragState struct {
	Active bool
	Last   vec.Vec2
	Second *vec.Vec2
}

type contact struct {
	id  int
	pos vec.Vec2
}

// GestureController converts pointer, touch and wheel input into view
// changes. Only the first two contacts take part in a gesture. Pan moves
// are coalesced so the view shifts at most once per interval; pinches and
// wheel steps apply immediately.
type GestureController struct {
	nav      Navigator
	host     Host
	interval time.Duration
	now      func() time.Time

	contacts  []contact
	drag      DragState
	pinchDist float64

	pending    vec.Vec2
	hasPending bool
	flush      Timer
	lastApply  time.Time
}

func NewGestureController(nav Navigator, host Host, cfg Config) *GestureController {
	return &GestureController{
		nav:      nav,
		host:     host,
		interval: cfg.DragInterval,
		now:      cfg.now(),
	}
}

func (g *GestureController) State() DragState {
	return g.drag
}

func (g *GestureController) find(id int) int {
	for i, c := range g.contacts {
		if c.id == id {
			return i
		}
	}
	return -1
}

func (g *GestureController) PointerDown(id int, x, y float64) {
	g.TouchStart(Touch{ID: id, X: x, Y: y})
}

func (g *GestureController) PointerMove(id int, x, y float64) {
	g.TouchMove(Touch{ID: id, X: x, Y: y})
}

func (g *GestureController) PointerUp(id int) {
	g.TouchEnd(id)
}

func (g *GestureController) TouchStart(touches ...Touch) {
	for _, t := range touches {
		if len(g.contacts) == 2 || g.find(t.ID) >= 0 {
			continue
		}
		g.contacts = append(g.contacts, contact{id: t.ID, pos: t.pos()})
		switch len(g.contacts) {
		case 1:
			g.nav.Checkpoint()
			g.drag = DragState{Active: true, Last: t.pos()}
			g.lastApply = time.Time{}
		case 2:
			g.applyPending()
			g.startPinch()
		}
	}
}

func (g *GestureController) startPinch() {
	a, b := g.contacts[0].pos, g.contacts[1].pos
	second := b
	g.drag = DragState{Active: true, Last: a, Second: &second}
	g.pinchDist = b.Sub(a).Length()
}

func (g *GestureController) TouchMove(touches ...Touch) {
	moved := false
	for _, t := range touches {
		if i := g.find(t.ID); i >= 0 {
			g.contacts[i].pos = t.pos()
			moved = true
		}
	}
	if !moved || !g.drag.Active {
		return
	}
	switch len(g.contacts) {
	case 1:
		g.pending = g.contacts[0].pos
		g.hasPending = true
		g.schedulePan()
	case 2:
		g.pinch()
	}
}

func (g *GestureController) pinch() {
	a, b := g.contacts[0].pos, g.contacts[1].pos
	dist := b.Sub(a).Length()
	centroid := a.Add(b).Mul(0.5)
	if g.pinchDist > 0 && dist > 0 {
		_ = g.nav.ZoomAt(centroid.X, centroid.Y, g.pinchDist/dist)
	}
	g.pinchDist = dist
	second := b
	g.drag.Last, g.drag.Second = a, &second
}

func (g *GestureController) schedulePan() {
	if g.flush != nil {
		return
	}
	since := g.now().Sub(g.lastApply)
	if since >= g.interval {
		g.applyPending()
		return
	}
	g.flush = g.host.AfterFunc(g.interval-since, func() {
		g.flush = nil
		g.applyPending()
	})
}

// applyPending shifts by the distance between the last applied position
// and the latest one, so coalesced moves lose nothing.
func (g *GestureController) applyPending() {
	if g.flush != nil {
		g.flush.Stop()
		g.flush = nil
	}
	if !g.hasPending || !g.drag.Active {
		g.hasPending = false
		return
	}
	delta := g.pending.Sub(g.drag.Last)
	g.drag.Last = g.pending
	g.hasPending = false
	g.lastApply = g.now()
	if delta.X != 0 || delta.Y != 0 {
		g.nav.Shift(delta.X, delta.Y)
	}
}

func (g *GestureController) TouchEnd(ids ...int) {
	for _, id := range ids {
		i := g.find(id)
		if i < 0 {
			continue
		}
		if len(g.contacts) == 1 {
			g.applyPending()
		}
		g.contacts = append(g.contacts[:i], g.contacts[i+1:]...)
		switch len(g.contacts) {
		case 0:
			g.reset()
		case 1:
			// pinch degrades to a pan from wherever the remaining contact is
			g.drag = DragState{Active: true, Last: g.contacts[0].pos}
			g.pinchDist = 0
			g.hasPending = false
		}
	}
}

// Cancel ends any gesture, e.g. when the pointer leaves the window or a
// release event was missed.
func (g *GestureController) Cancel() {
	if len(g.contacts) == 1 {
		g.applyPending()
	}
	g.contacts = g.contacts[:0]
	g.reset()
}

func (g *GestureController) reset() {
	if g.flush != nil {
		g.flush.Stop()
		g.flush = nil
	}
	g.drag = DragState{}
	g.pinchDist = 0
	g.hasPending = false
}

// Wheel zooms one fixed step around the cursor. Positive deltaY zooms out.
func (g *GestureController) Wheel(x, y, deltaY float64) {
	var factor float64
	switch {
	case deltaY > 0:
		factor = WheelZoomOut
	case deltaY < 0:
		factor = WheelZoomIn
	default:
		return
	}
	g.nav.Checkpoint()
	_ = g.nav.ZoomAt(x, y, factor)
}
