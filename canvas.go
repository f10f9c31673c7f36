package frustal

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Surface receives the pixels of the current generation. The Scheduler is
// its only writer.
type Surface interface {
	Resize(w, h int)
	SetPreviewScale(scale int)
	DrawPreview(img *image.RGBA)
	DrawChunk(img *image.RGBA)
}

// Canvas is the display buffer. Version changes on every write so a
// presenter can skip uploading an unchanged image.
type Canvas struct {
	img          *image.RGBA
	previewScale int
	version      uint64
}

var background = color.RGBA{R: 0x3a, G: 0x3a, B: 0x6e, A: 0xff}

func NewCanvas(w, h, previewScale int) *Canvas {
	c := &Canvas{previewScale: max(previewScale, 1)}
	c.Resize(w, h)
	return c
}

func (c *Canvas) Resize(w, h int) {
	c.img = image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	c.version++
}

func (c *Canvas) SetPreviewScale(scale int) {
	c.previewScale = max(scale, 1)
}

func (c *Canvas) Size() image.Point {
	return c.img.Bounds().Size()
}

func (c *Canvas) Image() *image.RGBA {
	return c.img
}

func (c *Canvas) Version() uint64 {
	return c.version
}

// DrawPreview stretches a reduced-resolution image over the whole canvas.
// Preview pixel (i, j) covers canvas pixels starting at (i*s, j*s).
func (c *Canvas) DrawPreview(img *image.RGBA) {
	s := c.previewScale
	sb := img.Bounds()
	dr := image.Rect(0, 0, sb.Dx()*s, sb.Dy()*s)
	draw.NearestNeighbor.Scale(c.img, dr, img, sb, draw.Src, nil)
	c.version++
}

// DrawChunk copies a full-resolution chunk to its own bounds.
func (c *Canvas) DrawChunk(img *image.RGBA) {
	r := img.Bounds().Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, img, r.Min, draw.Src)
	c.version++
}
