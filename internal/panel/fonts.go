package panel

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type FontSizeInPoints = float64

type Font struct {
	font  *opentype.Font
	faces map[FontSizeInPoints]font.Face
}

func LoadFontFromBytes(bytes []byte) (*Font, error) {
	f, err := opentype.Parse(bytes)
	if err != nil {
		return nil, err
	}
	return &Font{
		font:  f,
		faces: make(map[FontSizeInPoints]font.Face),
	}, nil
}

func LoadFontFromFile(name string) (*Font, error) {
	bytes, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return LoadFontFromBytes(bytes)
}

// DefaultFont is Go Mono, compiled into the binary.
func DefaultFont() (*Font, error) {
	return LoadFontFromBytes(gomono.TTF)
}

func (f *Font) GetFace(size FontSizeInPoints) (font.Face, error) {
	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     96,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	f.faces[size] = face
	return face, nil
}

// Text renders lines of text onto an RGBA overlay with a translucent
// backing.
type Text struct {
	face       font.Face
	lineHeight int
	ascent     int
	advance    int
	Fg, Bg     color.RGBA
}

func NewText(face font.Face) (*Text, error) {
	metrics := face.Metrics()
	adv, ok := face.GlyphAdvance('m')
	if !ok {
		return nil, fmt.Errorf("font face does not provide a glyph for rune 'm'")
	}
	lineHeight := metrics.Height.Ceil()
	if lineHeight == 0 {
		lineHeight = metrics.Ascent.Ceil() + metrics.Descent.Ceil()
	}
	return &Text{
		face:       face,
		lineHeight: lineHeight,
		ascent:     metrics.Ascent.Ceil(),
		advance:    adv.Ceil(),
		Fg:         color.RGBA{0xee, 0xee, 0xee, 0xff},
		Bg:         color.RGBA{0, 0, 0, 0xa0},
	}, nil
}

func (t *Text) LineHeight() int {
	return t.lineHeight
}

// Columns returns how many cells of a monospaced face fit into width pixels.
func (t *Text) Columns(width int) int {
	if t.advance <= 0 {
		return 0
	}
	return width / t.advance
}

// Measure returns the pixel size of the block lines would occupy.
func (t *Text) Measure(lines []string) image.Point {
	w := 0
	for _, line := range lines {
		w = max(w, font.MeasureString(t.face, line).Ceil())
	}
	return image.Pt(w+2*t.pad(), len(lines)*t.lineHeight+2*t.pad())
}

func (t *Text) pad() int {
	return t.lineHeight / 4
}

// Render draws lines onto a new image exactly large enough to hold them.
// When cursor >= 0 the cell at that column of the last line is inverted.
func (t *Text) Render(lines []string, cursor int) *image.RGBA {
	size := t.Measure(lines)
	if cursor >= 0 {
		size.X += t.advance
	}
	img := image.NewRGBA(image.Rectangle{Max: size})
	if len(lines) == 0 {
		return img
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(t.Bg), image.Point{}, draw.Src)
	pad := t.pad()
	d := &font.Drawer{Dst: img, Src: image.NewUniform(t.Fg), Face: t.face}
	for i, line := range lines {
		d.Dot = fixed.P(pad, pad+i*t.lineHeight+t.ascent)
		d.DrawString(line)
	}
	if cursor >= 0 {
		y := pad + (len(lines)-1)*t.lineHeight
		x := pad + cursor*t.advance
		r := image.Rect(x, y, x+t.advance, y+t.lineHeight).Intersect(img.Bounds())
		invert(img, r)
	}
	return img
}

func invert(img *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{0xff - c.R, 0xff - c.G, 0xff - c.B, 0xff})
		}
	}
}
