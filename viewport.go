package frustal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/vec"
)

// Domain is the visible window on the complex plane. The shorter side of
// the canvas spans 2*Scale plane units centred at (OriginX, OriginY).
// The plane y axis points up, pixel y points down.
type Domain struct {
	OriginX float64
	OriginY float64
	Scale   float64
}

// DefaultDomain shows the whole Mandelbrot set on a landscape canvas.
func DefaultDomain() Domain {
	return Domain{OriginX: -0.5, OriginY: 0, Scale: 1.5}
}

func validScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Validate reports whether d satisfies the Domain invariants.
func (d Domain) Validate() error {
	if !validScale(d.Scale) {
		return paramErr("scale", d.Scale, ErrInvalidScale)
	}
	if !finite(d.OriginX) {
		return paramErr("x", d.OriginX, ErrInvalidValue)
	}
	if !finite(d.OriginY) {
		return paramErr("y", d.OriginY, ErrInvalidValue)
	}
	return nil
}

// UnitsPerPixel returns the plane distance covered by one pixel of a
// w×h canvas. This is the single place where the pixel divisor is chosen.
func (d Domain) UnitsPerPixel(w, h int) float64 {
	side := min(w, h)
	if side <= 0 {
		return 0
	}
	return 2 * d.Scale / float64(side)
}

// PixelToPlane maps a pixel position on a w×h canvas to plane coordinates.
func (d Domain) PixelToPlane(px, py float64, w, h int) vec.Vec2 {
	upp := d.UnitsPerPixel(w, h)
	return vec.Vec2{
		X: d.OriginX + (px-float64(w)/2)*upp,
		Y: d.OriginY - (py-float64(h)/2)*upp,
	}
}

// PlaneToPixel is the inverse of PixelToPlane.
func (d Domain) PlaneToPixel(p vec.Vec2, w, h int) (px, py float64) {
	upp := d.UnitsPerPixel(w, h)
	if upp == 0 {
		return 0, 0
	}
	px = (p.X-d.OriginX)/upp + float64(w)/2
	py = float64(h)/2 - (p.Y-d.OriginY)/upp
	return px, py
}

// Shift moves the view by a pixel displacement, so that content follows
// the pointer.
func (d *Domain) Shift(dx, dy float64, w, h int) {
	if dx == 0 && dy == 0 {
		return
	}
	upp := d.UnitsPerPixel(w, h)
	d.OriginX -= dx * upp
	d.OriginY += dy * upp
}

// ZoomAt multiplies the scale by factor while keeping the plane point under
// the anchor pixel fixed. factor > 1 zooms out.
func (d *Domain) ZoomAt(ax, ay, factor float64, w, h int) error {
	if !validScale(factor) {
		return paramErr("factor", factor, ErrInvalidValue)
	}
	scale := d.Scale * factor
	if !validScale(scale) {
		return paramErr("scale", scale, ErrInvalidScale)
	}
	p := d.PixelToPlane(ax, ay, w, h)
	origin := vec.Vec2{X: d.OriginX, Y: d.OriginY}
	origin = p.Add(origin.Sub(p).Mul(factor))
	d.OriginX, d.OriginY, d.Scale = origin.X, origin.Y, scale
	return nil
}

// SetAbsolute assigns all three fields at once.
func (d *Domain) SetAbsolute(x, y, scale float64) error {
	next := Domain{OriginX: x, OriginY: y, Scale: scale}
	if err := next.Validate(); err != nil {
		return err
	}
	*d = next
	return nil
}

func (d Domain) String() string {
	return fmt.Sprintf("x=%.17g y=%.17g scale=%.17g", d.OriginX, d.OriginY, d.Scale)
}

// Domain field names accepted by Domain.Set.
const (
	FieldX     = "x"
	FieldY     = "y"
	FieldScale = "scale"
)

var DomainFields = []string{FieldX, FieldY, FieldScale}

// Set parses value into the named field through SetAbsolute.
func (d *Domain) Set(name, value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return paramErr(name, value, ErrInvalidValue)
	}
	x, y, s := d.OriginX, d.OriginY, d.Scale
	switch name {
	case FieldX:
		x = f
	case FieldY:
		y = f
	case FieldScale:
		s = f
	default:
		return paramErr(name, value, ErrUnknownField)
	}
	return d.SetAbsolute(x, y, s)
}
