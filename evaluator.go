package frustal

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Evaluator is the expensive image engine driven by the Scheduler. Calls
// block until the image is ready and may run concurrently with each other:
// a superseded call is never aborted, its result is only discarded.
type Evaluator interface {
	// PreviewRender renders the whole view at reduced resolution.
	PreviewRender(ctx context.Context, d Domain, o Options) (*image.RGBA, error)

	// PartialRender renders chunk index of total. The returned image's
	// bounds are the chunk rectangle in full-resolution coordinates.
	PartialRender(ctx context.Context, d Domain, o Options, total, index int) (*image.RGBA, error)

	Resize(w, h int) error
	ResizePreview(scale int) error

	// Snapshot returns the domain and options of the most recent call.
	Snapshot() (Domain, Options)
}

// ChunkRect returns the rows of a w×h image covered by chunk index of
// total. Chunks tile the image top to bottom without gaps.
func ChunkRect(w, h, total, index int) image.Rectangle {
	y0 := index * h / total
	y1 := (index + 1) * h / total
	return image.Rect(0, y0, w, y1)
}

// PreviewSize returns the dimensions of the reduced-resolution preview.
func PreviewSize(w, h, scale int) image.Point {
	if scale < 1 {
		scale = 1
	}
	return image.Pt((w+scale-1)/scale, (h+scale-1)/scale)
}

// checkRegion rejects view sizes, steps and rectangles no caller of
// RenderRegion can produce: r must be canonical and inside the w×h view.
func checkRegion(w, h, step int, r image.Rectangle) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("size %dx%d: %w", w, h, ErrOutOfRange)
	}
	if step < 1 {
		return paramErr("step", step, ErrOutOfRange)
	}
	if r != r.Canon() || !r.In(image.Rect(0, 0, w, h)) {
		return fmt.Errorf("rect %v in %dx%d: %w", r, w, h, ErrOutOfRange)
	}
	return nil
}

// RenderRegion evaluates the pixels of r for a view of w×h pixels. Each
// destination pixel samples the full-resolution position (x*step, y*step),
// so step > 1 produces a preview whose pixel grid is step times coarser.
func RenderRegion(ctx context.Context, d Domain, o Options, w, h, step int, r image.Rectangle, workers int) (*image.RGBA, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := checkRegion(w, h, step, r); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	img := image.NewRGBA(r)
	if r.Empty() {
		return img, nil
	}
	escape := escapeFor(o.Variant)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := r.Min.Y; y < r.Max.Y && gctx.Err() == nil; y++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for x := r.Min.X; x < r.Max.X; x++ {
				p := d.PixelToPlane(float64(x*step), float64(y*step), w, h)
				it, ok := escape(complex(p.X, p.Y), &o)
				img.SetRGBA(x, y, colorize(it, ok, &o))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

type snapshot struct {
	d Domain
	o Options
}

// LocalEvaluator renders on the CPU of the current process, running at most
// Workers rows of each call at once.
type LocalEvaluator struct {
	Workers int

	size         Box[image.Point]
	previewScale Box[int]
	last         Box[snapshot]
}

func NewLocalEvaluator(w, h, previewScale int) *LocalEvaluator {
	e := &LocalEvaluator{}
	e.size.Set(image.Pt(w, h))
	e.previewScale.Set(max(previewScale, 1))
	e.last.Set(snapshot{d: DefaultDomain(), o: DefaultOptions()})
	return e
}

func (e *LocalEvaluator) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("resize %dx%d: %w", w, h, ErrOutOfRange)
	}
	e.size.Set(image.Pt(w, h))
	return nil
}

func (e *LocalEvaluator) ResizePreview(scale int) error {
	if scale < 1 {
		return paramErr("previewScale", scale, ErrOutOfRange)
	}
	e.previewScale.Set(scale)
	return nil
}

func (e *LocalEvaluator) Snapshot() (Domain, Options) {
	s := e.last.Get()
	return s.d, s.o
}

func (e *LocalEvaluator) PreviewRender(ctx context.Context, d Domain, o Options) (*image.RGBA, error) {
	e.last.Set(snapshot{d, o})
	size := e.size.Get()
	scale := e.previewScale.Get()
	ps := PreviewSize(size.X, size.Y, scale)
	return RenderRegion(ctx, d, o, size.X, size.Y, scale, image.Rectangle{Max: ps}, e.Workers)
}

func (e *LocalEvaluator) PartialRender(ctx context.Context, d Domain, o Options, total, index int) (*image.RGBA, error) {
	if total <= 0 || index < 0 || index >= total {
		return nil, fmt.Errorf("chunk %d of %d: %w", index, total, ErrOutOfRange)
	}
	e.last.Set(snapshot{d, o})
	size := e.size.Get()
	return RenderRegion(ctx, d, o, size.X, size.Y, 1, ChunkRect(size.X, size.Y, total, index), e.Workers)
}
