package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/cellux/frustal"
	"github.com/cellux/frustal/internal/logging"
)

var logger = slog.Default()

func run() error {
	cfg := frustal.DefaultConfig()
	var (
		logLevel   = flag.String("log", "info", "log level: debug, info, warn or error")
		remote     = flag.String("remote", "", "websocket URL of a frustal-worker, e.g. ws://localhost:8080/render")
		preset     = flag.String("preset", "", "initial preset name")
		shots      = flag.String("shots", "~/Pictures", "screenshot directory")
		width      = flag.Int("width", 1024, "initial window width")
		height     = flag.Int("height", 768, "initial window height")
		fullscreen = flag.Bool("fullscreen", false, "open a fullscreen window on the primary monitor")
		fontPath   = flag.String("font", "", "TrueType or OpenType font file for the HUD (default: Go Mono)")
		list       = flag.Bool("presets", false, "list presets and exit")
	)
	flag.IntVar(&cfg.Chunks, "chunks", cfg.Chunks, "number of chunks per full render")
	flag.BoolVar(&cfg.Preview, "preview", cfg.Preview, "render a low resolution preview first")
	flag.IntVar(&cfg.PreviewScale, "preview-scale", cfg.PreviewScale, "preview pixel size")
	flag.DurationVar(&cfg.SettleMargin, "settle", cfg.SettleMargin, "delay added after the preview before the full render")
	flag.DurationVar(&cfg.EditQuiet, "edit-quiet", cfg.EditQuiet, "quiet period before parameter edits apply")
	flag.Parse()

	if *list {
		for i, p := range frustal.Presets {
			fmt.Printf("%d  %s\n", i+1, p.Name)
		}
		return nil
	}
	l, err := logging.New(os.Stderr, "frustal", *logLevel)
	if err != nil {
		return err
	}
	logger = l
	if cfg.Chunks < 1 || cfg.PreviewScale < 1 {
		return fmt.Errorf("-chunks and -preview-scale must be positive")
	}
	cfg.Logger = logger

	app := CreateApp(appOptions{
		cfg:      cfg,
		remote:   *remote,
		preset:   *preset,
		shotsDir: *shots,
		fontPath: *fontPath,
	})
	return WithGL(windowOptions{
		title:      "frustal",
		width:      *width,
		height:     *height,
		fullscreen: *fullscreen,
	}, app)
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v\n", err)
	}
}
