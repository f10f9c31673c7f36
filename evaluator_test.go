package frustal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestChunkRectTiles(t *testing.T) {
	for _, tt := range []struct{ w, h, total int }{
		{160, 96, 16},
		{7, 5, 16},
		{1024, 768, 3},
		{10, 10, 1},
	} {
		next := 0
		for i := range tt.total {
			r := ChunkRect(tt.w, tt.h, tt.total, i)
			if r.Min.Y != next || r.Min.X != 0 || r.Max.X != tt.w {
				t.Fatalf("%dx%d/%d: chunk %d is %v, expected to start at row %d", tt.w, tt.h, tt.total, i, r, next)
			}
			next = r.Max.Y
		}
		if next != tt.h {
			t.Fatalf("%dx%d/%d: chunks end at row %d", tt.w, tt.h, tt.total, next)
		}
	}
}

func TestPreviewSize(t *testing.T) {
	if got := PreviewSize(161, 96, 4); got != image.Pt(41, 24) {
		t.Fatalf("PreviewSize(161, 96, 4) = %v", got)
	}
	if got := PreviewSize(10, 10, 0); got != image.Pt(10, 10) {
		t.Fatalf("PreviewSize with scale 0 = %v", got)
	}
}

func TestEscapeFunctions(t *testing.T) {
	o := DefaultOptions()
	o.Precision = 200
	if _, ok := mandelbrot(0, &o); ok {
		t.Error("origin escaped the Mandelbrot set")
	}
	if _, ok := mandelbrot(-1, &o); ok {
		t.Error("period-2 bulb escaped the Mandelbrot set")
	}
	if it, ok := mandelbrot(complex(2, 2), &o); !ok || it.n > 2 {
		t.Errorf("2+2i: escaped %v after %v", ok, it.n)
	}
	o.Order = 3
	if _, ok := mandelbrot(0, &o); ok {
		t.Error("origin escaped the order 3 Multibrot set")
	}

	n := DefaultOptions()
	n.Real, n.Imaginary = 1, 0
	for _, v := range []Variant{Newton, Newton2, Newton3, Newton4, Newton5} {
		poly := newtonPolynomials[v]
		for _, r := range poly.roots {
			it, ok := newton(poly)(r.z+complex(0.01, 0.01), &n)
			if !ok || it.ch != r.ch {
				t.Errorf("%v: start near root %v converged=%v to channel %v", v, r.z, ok, it.ch)
			}
		}
	}
}

func TestRenderRegion(t *testing.T) {
	d, o := DefaultDomain(), DefaultOptions()
	w, h := 64, 48
	r := image.Rect(0, 16, 64, 32)
	img, err := RenderRegion(context.Background(), d, o, w, h, 1, r, 3)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != r {
		t.Fatalf("bounds %v, want %v", img.Bounds(), r)
	}
	// the canvas centre is (-0.5, 0), inside the main cardioid
	if c := img.RGBAAt(32, 24); c != (color.RGBA{A: 255}) {
		t.Fatalf("centre pixel %v, want black", c)
	}
	if c := img.RGBAAt(0, 16); c == (color.RGBA{A: 255}) || c.A != 255 {
		t.Fatalf("outside pixel %v", c)
	}

	// rendering is deterministic regardless of the worker count
	again, err := RenderRegion(context.Background(), d, o, w, h, 1, r, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(img.Pix, again.Pix) {
		t.Fatal("results differ between worker counts")
	}
}

func TestRenderRegionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RenderRegion(ctx, DefaultDomain(), DefaultOptions(), 100, 100, 1, image.Rect(0, 0, 100, 100), 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRenderRegionRejectsInvalid(t *testing.T) {
	o := DefaultOptions()
	o.Precision = 0
	if _, err := RenderRegion(context.Background(), DefaultDomain(), o, 10, 10, 1, image.Rect(0, 0, 10, 10), 1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderRegionRejectsBadRegion(t *testing.T) {
	d, o := DefaultDomain(), DefaultOptions()
	for _, tt := range []struct {
		name       string
		w, h, step int
		r          image.Rectangle
	}{
		{"inverted", 10, 10, 1, image.Rectangle{Min: image.Pt(8, 8), Max: image.Pt(2, 2)}},
		{"outside the view", 10, 10, 1, image.Rect(0, 5, 10, 11)},
		{"negative origin", 10, 10, 1, image.Rect(-1, 0, 5, 5)},
		{"zero step", 10, 10, 0, image.Rect(0, 0, 5, 5)},
		{"empty view", 0, 10, 1, image.Rectangle{}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderRegion(context.Background(), d, o, tt.w, tt.h, tt.step, tt.r, 1)
			if !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("err = %v, want ErrOutOfRange", err)
			}
		})
	}
}

func TestLocalEvaluator(t *testing.T) {
	e := NewLocalEvaluator(80, 60, 4)
	e.Workers = 2
	d := Domain{OriginX: -0.75, OriginY: 0.1, Scale: 0.5}
	o := DefaultOptions()
	o.Variant = BurningShip

	pv, err := e.PreviewRender(context.Background(), d, o)
	if err != nil {
		t.Fatal(err)
	}
	if pv.Bounds() != image.Rect(0, 0, 20, 15) {
		t.Fatalf("preview bounds %v", pv.Bounds())
	}
	full, err := e.PartialRender(context.Background(), d, o, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	// preview pixel (i, j) samples full resolution pixel (4i, 4j)
	if pv.RGBAAt(3, 2) != full.RGBAAt(12, 8) {
		t.Fatalf("preview %v != full %v", pv.RGBAAt(3, 2), full.RGBAAt(12, 8))
	}

	chunk, err := e.PartialRender(context.Background(), d, o, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if chunk.Bounds() != ChunkRect(80, 60, 4, 3) {
		t.Fatalf("chunk bounds %v", chunk.Bounds())
	}
	if gotD, gotO := e.Snapshot(); gotD != d || gotO != o {
		t.Fatalf("snapshot %v %v", gotD, gotO)
	}
	if _, err := e.PartialRender(context.Background(), d, o, 4, 4); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("chunk out of range: %v", err)
	}

	if err := e.Resize(0, 5); err == nil {
		t.Fatal("zero width accepted")
	}
	if err := e.ResizePreview(0); err == nil {
		t.Fatal("zero preview scale accepted")
	}
	if err := e.Resize(40, 30); err != nil {
		t.Fatal(err)
	}
	pv, err = e.PreviewRender(context.Background(), d, o)
	if err != nil {
		t.Fatal(err)
	}
	if pv.Bounds() != image.Rect(0, 0, 10, 8) {
		t.Fatalf("preview bounds after resize %v", pv.Bounds())
	}
}

func TestCanvas(t *testing.T) {
	c := NewCanvas(8, 8, 2)
	if c.Image().RGBAAt(3, 3) != background {
		t.Fatal("canvas not cleared to the background")
	}
	v := c.Version()

	pv := image.NewRGBA(image.Rect(0, 0, 4, 4))
	red := color.RGBA{R: 255, A: 255}
	pv.SetRGBA(1, 2, red)
	c.DrawPreview(pv)
	if c.Version() == v {
		t.Fatal("version unchanged after preview")
	}
	for _, p := range []image.Point{{2, 4}, {3, 5}} {
		if got := c.Image().RGBAAt(p.X, p.Y); got != red {
			t.Errorf("pixel %v = %v, want red", p, got)
		}
	}
	if got := c.Image().RGBAAt(4, 4); got == red {
		t.Error("preview pixel spilled")
	}

	chunk := image.NewRGBA(image.Rect(0, 6, 8, 10))
	blue := color.RGBA{B: 255, A: 255}
	for x := range 8 {
		chunk.SetRGBA(x, 6, blue)
		chunk.SetRGBA(x, 7, blue)
	}
	c.DrawChunk(chunk)
	if c.Image().RGBAAt(5, 7) != blue || c.Image().RGBAAt(5, 5) == blue {
		t.Fatal("chunk drawn at the wrong rows")
	}

	c.Resize(4, 2)
	if c.Size() != image.Pt(4, 2) {
		t.Fatalf("size %v after resize", c.Size())
	}
}
