package frustal

import (
	"log/slog"
	"time"
)

type Config struct {
	// Chunks is the number of sequential evaluator calls of a full pass.
	Chunks int

	// Preview enables the low-resolution pass before every full pass.
	Preview bool

	// PreviewScale is the pixel size of the preview relative to the canvas.
	PreviewScale int

	// SettleMargin is added to the preview duration before the full pass
	// starts, so an ongoing gesture keeps the evaluator free for previews.
	SettleMargin time.Duration

	// ChunkYield is the pause between drawing one chunk and requesting the
	// next.
	ChunkYield time.Duration

	// DragInterval bounds how often a pointer drag shifts the view.
	DragInterval time.Duration

	// EditQuiet is how long parameter edits must stop before they apply.
	EditQuiet time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Chunks:       16,
		Preview:      true,
		PreviewScale: 4,
		SettleMargin: 30 * time.Millisecond,
		ChunkYield:   time.Millisecond,
		DragInterval: 16 * time.Millisecond,
		EditQuiet:    300 * time.Millisecond,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) now() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}
