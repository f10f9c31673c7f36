package main

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	gl "github.com/go-gl/gl/v3.1/gles2"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/mitchellh/go-homedir"

	"github.com/cellux/frustal"
	"github.com/cellux/frustal/internal/panel"
)

const (
	hudFontSize panel.FontSizeInPoints = 11
	panStep                            = 0.1
)

type appOptions struct {
	cfg      frustal.Config
	remote   string
	preset   string
	shotsDir string
	fontPath string
}

type evaluator interface {
	frustal.Evaluator
	Close() error
}

type localCloser struct {
	*frustal.LocalEvaluator
}

func (localCloser) Close() error { return nil }

type App struct {
	opts       appOptions
	shouldExit bool

	loop     *frustal.Loop
	eval     evaluator
	canvas   *frustal.Canvas
	sched    *frustal.Scheduler
	session  *frustal.Session
	gestures *frustal.GestureController
	edits    *frustal.OptionsSync

	fbSize   image.Point
	pressed  bool
	progress frustal.Progress

	font          *panel.Font
	text          *panel.Text
	canvasBlit    *Blitter
	hudBlit       *Blitter
	canvasVersion uint64
	showHUD       bool

	keys *panel.Dispatcher
	status        string
	lastError     error
}

func CreateApp(opts appOptions) *App {
	return &App{
		opts:    opts,
		loop:    frustal.NewLoop(1024),
		showHUD: true,
	}
}

func (app *App) SetLastError(err error) {
	app.lastError = err
	if err != nil {
		logger.Warn("command failed", "error", err)
	}
}

func (app *App) ClearLastError() {
	app.lastError = nil
}

func (app *App) setStatus(format string, args ...any) {
	app.status = fmt.Sprintf(format, args...)
}

// loadFont reads a TrueType or OpenType file, or returns the built-in
// monospace font when path is empty.
func loadFont(path string) (*panel.Font, error) {
	if path == "" {
		return panel.DefaultFont()
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return panel.LoadFontFromFile(path)
}

func (app *App) Init() error {
	app.loop.SetWaker(glfw.PostEmptyEvent)
	cfg := app.opts.cfg
	w, h := max(app.fbSize.X, 1), max(app.fbSize.Y, 1)

	if app.opts.remote != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		remote, err := frustal.DialRemote(ctx, app.opts.remote, w, h, cfg.PreviewScale)
		if err != nil {
			return err
		}
		logger.Info("using remote evaluator", "url", app.opts.remote)
		app.eval = remote
	} else {
		app.eval = localCloser{frustal.NewLocalEvaluator(w, h, cfg.PreviewScale)}
	}

	app.canvas = frustal.NewCanvas(w, h, cfg.PreviewScale)
	app.sched = frustal.NewScheduler(app.loop, app.eval, app.canvas, cfg)
	app.sched.OnProgress(func(p frustal.Progress) {
		app.progress = p
	})
	app.session = frustal.NewSession(app.sched, w, h, cfg)
	app.session.OnChange(func(d frustal.Domain, o frustal.Options) {
		logger.Debug("view changed", "domain", d.String(), "options", o.String())
	})
	app.gestures = frustal.NewGestureController(app.session, app.loop, cfg)
	app.edits = frustal.NewOptionsSync(app.session, app.loop, cfg)

	font, err := loadFont(app.opts.fontPath)
	if err != nil {
		return err
	}
	app.font = font
	face, err := font.GetFace(hudFontSize)
	if err != nil {
		return err
	}
	if app.text, err = panel.NewText(face); err != nil {
		return err
	}
	if app.canvasBlit, err = CreateBlitter(gl.NEAREST); err != nil {
		return err
	}
	if app.hudBlit, err = CreateBlitter(gl.NEAREST); err != nil {
		return err
	}

	app.initKeyMap()

	if app.opts.preset != "" {
		p, ok := frustal.FindPreset(app.opts.preset)
		if !ok {
			return fmt.Errorf("unknown preset: %s", app.opts.preset)
		}
		return app.session.ApplyPreset(p)
	}
	app.session.RequestRender()
	return nil
}

func (app *App) initKeyMap() {
	km := panel.CreateKeyMap()
	km.Bind("C-q", app.Quit)
	km.Bind("Escape", app.reset)
	km.Bind("C-g", app.reset)
	for i, p := range frustal.Presets {
		if i >= 9 {
			break
		}
		km.Bind(strconv.Itoa(i+1), func() { app.applyPreset(p) })
	}
	km.Bind("u", app.undo)
	km.Bind("C-z", app.undo)
	km.Bind("Left", func() { app.pan(1, 0) })
	km.Bind("Right", func() { app.pan(-1, 0) })
	km.Bind("Up", func() { app.pan(0, 1) })
	km.Bind("Down", func() { app.pan(0, -1) })
	km.Bind("=", func() { app.zoom(frustal.WheelZoomIn) })
	km.Bind("S-=", func() { app.zoom(frustal.WheelZoomIn) })
	km.Bind("-", func() { app.zoom(frustal.WheelZoomOut) })
	km.Bind("p", app.togglePreview)
	km.Bind("[", func() { app.setPreviewScale(app.sched.PreviewScale() - 1) })
	km.Bind("]", func() { app.setPreviewScale(app.sched.PreviewScale() + 1) })
	km.Bind("i", func() { app.stepPrecision(2) })
	km.Bind("S-i", func() { app.stepPrecision(0.5) })
	km.Bind("l", func() { app.stepLightness(1.25) })
	km.Bind("S-l", func() { app.stepLightness(0.8) })
	km.Bind("o", func() { app.stepOrder(1) })
	km.Bind("S-o", func() { app.stepOrder(-1) })
	km.Bind("v", app.cycleVariant)
	km.Bind("c", app.cycleColorization)
	km.Bind("s", app.toggleSmooth)
	km.Bind("e", app.openEditPrompt)
	km.Bind("g", app.openPresetPrompt)
	km.Bind("h", func() { app.showHUD = !app.showHUD })
	km.Bind("C-c", app.copyToClipboard)
	km.Bind("F12", app.screenshot)
	km.Bind("C-s", app.screenshot)
	app.keys = panel.NewDispatcher(km)
}

func (app *App) IsRunning() bool {
	return !app.shouldExit
}

func (app *App) Quit() {
	app.shouldExit = true
}

func (app *App) applyPreset(p frustal.Preset) {
	app.edits.Discard()
	if err := app.session.ApplyPreset(p); err != nil {
		app.SetLastError(err)
		return
	}
	app.setStatus("preset %s", p.Name)
}

func (app *App) undo() {
	if !app.session.Undo() {
		app.setStatus("nothing to undo")
	}
}

func (app *App) pan(dx, dy float64) {
	size := app.session.Size()
	step := panStep * float64(min(size.X, size.Y))
	app.session.Checkpoint()
	app.session.Shift(dx*step, dy*step)
}

func (app *App) zoom(factor float64) {
	app.session.Checkpoint()
	if err := app.session.ZoomCenter(factor); err != nil {
		app.SetLastError(err)
	}
}

func (app *App) togglePreview() {
	app.sched.SetPreview(!app.sched.PreviewEnabled())
	app.setStatus("preview %v", app.sched.PreviewEnabled())
	app.session.RequestRender()
}

func (app *App) setPreviewScale(scale int) {
	if scale < 1 {
		return
	}
	if err := app.sched.ResizePreview(scale); err != nil {
		app.SetLastError(err)
		return
	}
	app.setStatus("preview scale %d", scale)
}

// edit queues a debounced change based on the values pending edits would
// produce, so repeated key presses accumulate.
func (app *App) edit(name string, value func(o frustal.Options) string) {
	_, o := app.edits.Snapshot()
	if err := app.edits.Edit(name, value(o)); err != nil {
		app.SetLastError(err)
	}
}

func (app *App) stepPrecision(factor float64) {
	app.edit(frustal.FieldPrecision, func(o frustal.Options) string {
		n := int(float64(o.Precision) * factor)
		if n == o.Precision && factor > 1 {
			n++
		}
		return strconv.Itoa(min(max(n, frustal.MinPrecision), frustal.MaxPrecision))
	})
}

func (app *App) stepLightness(factor float64) {
	app.edit(frustal.FieldLightness, func(o frustal.Options) string {
		return strconv.FormatFloat(min(o.Lightness*factor, frustal.MaxLightness), 'g', 6, 64)
	})
}

func (app *App) stepOrder(delta int) {
	app.edit(frustal.FieldOrder, func(o frustal.Options) string {
		return strconv.Itoa(min(max(o.Order+delta, frustal.MinOrder), frustal.MaxOrder))
	})
}

func (app *App) cycleVariant() {
	app.edit(frustal.FieldVariant, func(o frustal.Options) string {
		return o.Variant.Next().String()
	})
}

func (app *App) cycleColorization() {
	app.edit(frustal.FieldColorization, func(o frustal.Options) string {
		return o.Colorization.Next().String()
	})
}

func (app *App) toggleSmooth() {
	app.edit(frustal.FieldSmooth, func(o frustal.Options) string {
		return strconv.FormatBool(!o.Smooth)
	})
}

func (app *App) reset() {
	app.status = ""
}

func (app *App) OpenPrompt(prompt *panel.Prompt) {
	app.keys.Open(prompt)
}

func (app *App) ClosePrompt() {
	app.keys.Close()
}

// openEditPrompt asks for "name value" pairs, e.g. "precision 500 real -0.4".
func (app *App) openEditPrompt() {
	app.OpenPrompt(panel.CreateTextPrompt("set: ", panel.PromptCallbacks{
		OnConfirm: func(text string) {
			app.ClosePrompt()
			if err := app.applyEdits(text); err != nil {
				app.SetLastError(err)
			}
		},
		OnCancel: app.ClosePrompt,
	}))
}

func (app *App) applyEdits(text string) error {
	fields := strings.Fields(strings.ReplaceAll(text, "=", " "))
	if len(fields)%2 != 0 {
		return fmt.Errorf("expected name value pairs, got %q", text)
	}
	for i := 0; i < len(fields); i += 2 {
		if err := app.edits.EditField(fields[i], fields[i+1]); err != nil {
			app.edits.Discard()
			return err
		}
	}
	return app.edits.Flush()
}

func (app *App) openPresetPrompt() {
	var chars strings.Builder
	for i := range min(len(frustal.Presets), 9) {
		chars.WriteString(strconv.Itoa(i + 1))
	}
	app.OpenPrompt(panel.CreateCharPrompt("preset", chars.String(), panel.PromptCallbacks{
		OnConfirm: func(s string) {
			app.ClosePrompt()
			i, _ := strconv.Atoi(s)
			app.applyPreset(frustal.Presets[i-1])
		},
		OnCancel: app.ClosePrompt,
	}))
}

func (app *App) viewText() string {
	return app.session.Domain().String() + "\n" + app.session.Options().String()
}

func (app *App) copyToClipboard() {
	if err := clipboard.WriteAll(app.viewText()); err != nil {
		app.SetLastError(fmt.Errorf("clipboard: %w", err))
		return
	}
	app.setStatus("view copied to clipboard")
}

func (app *App) screenshot() {
	src := app.canvas.Image()
	img := image.NewRGBA(src.Bounds())
	copy(img.Pix, src.Pix)
	dir := app.opts.shotsDir
	go func() {
		path, err := saveScreenshot(dir, img, time.Now())
		app.loop.Post(func() {
			if err != nil {
				app.SetLastError(fmt.Errorf("screenshot: %w", err))
				return
			}
			logger.Info("screenshot saved", "path", path)
			app.setStatus("saved %s", path)
		})
	}()
}

func keyName(key glfw.Key, scancode int, mods glfw.ModifierKey) string {
	var name string
	switch key {
	case glfw.KeyLeftShift, glfw.KeyLeftControl, glfw.KeyLeftAlt, glfw.KeyLeftSuper:
		return ""
	case glfw.KeyRightShift, glfw.KeyRightControl, glfw.KeyRightAlt, glfw.KeyRightSuper:
		return ""
	case glfw.KeySpace:
		name = "Space"
	case glfw.KeyEscape:
		name = "Escape"
	case glfw.KeyEnter, glfw.KeyKPEnter:
		name = "Enter"
	case glfw.KeyTab:
		name = "Tab"
	case glfw.KeyBackspace:
		name = "Backspace"
	case glfw.KeyDelete:
		name = "Delete"
	case glfw.KeyRight:
		name = "Right"
	case glfw.KeyLeft:
		name = "Left"
	case glfw.KeyDown:
		name = "Down"
	case glfw.KeyUp:
		name = "Up"
	case glfw.KeyHome:
		name = "Home"
	case glfw.KeyEnd:
		name = "End"
	case glfw.KeyF12:
		name = "F12"
	default:
		name = glfw.GetKeyName(key, scancode)
	}
	return panel.KeyName(name,
		mods&glfw.ModShift != 0,
		mods&glfw.ModAlt != 0,
		mods&glfw.ModControl != 0)
}

func (app *App) OnKey(key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}
	name := keyName(key, scancode, mods)
	if name == "" {
		return
	}
	app.HandleKey(name)
}

func (app *App) HandleKey(key string) bool {
	app.ClearLastError()
	return app.keys.HandleKey(key)
}

func (app *App) OnChar(char rune) {
	app.keys.OnChar(char)
}

func (app *App) OnMouseButton(button glfw.MouseButton, action glfw.Action, x, y float64) {
	if button != glfw.MouseButtonLeft {
		return
	}
	switch action {
	case glfw.Press:
		app.pressed = true
		app.gestures.PointerDown(0, x, y)
	case glfw.Release:
		app.pressed = false
		app.gestures.PointerUp(0)
	}
}

func (app *App) OnCursorPos(x, y float64) {
	if app.pressed {
		app.gestures.PointerMove(0, x, y)
	}
}

func (app *App) OnScroll(x, y, yoff float64) {
	// scrolling up zooms in
	app.gestures.Wheel(x, y, -yoff)
}

func (app *App) OnCursorEnter(entered bool) {
	if !entered {
		app.pressed = false
		app.gestures.Cancel()
	}
}

func (app *App) OnFramebufferSize(width, height int) {
	logger.Debug("OnFramebufferSize", "width", width, "height", height)
	app.fbSize = image.Pt(width, height)
	if app.session == nil || width <= 0 || height <= 0 {
		return
	}
	if err := app.session.Resize(width, height); err != nil {
		app.SetLastError(err)
	}
}

func (app *App) hudLines() []string {
	p := app.progress
	size := app.canvas.Size()
	lines := []string{
		fmt.Sprintf("gen %d %s %d/%d  %.0fms  %dx%d  preview %v x%d",
			p.Gen, p.State, p.Done, p.Total,
			float64(p.Elapsed.Microseconds())/1000,
			size.X, size.Y,
			app.sched.PreviewEnabled(), app.sched.PreviewScale()),
		app.session.Domain().String(),
		app.session.Options().String(),
	}
	// the evaluator may still be busy with a superseded view
	if d, o := app.eval.Snapshot(); d != app.session.Domain() || o != app.session.Options() {
		lines = append(lines, "evaluating: "+d.String())
	}
	if app.edits.Pending() {
		_, o := app.edits.Snapshot()
		lines = append(lines, "pending: "+o.String())
	}
	if app.lastError != nil {
		lines = append(lines, "error: "+app.lastError.Error())
	} else if app.status != "" {
		lines = append(lines, app.status)
	}
	return lines
}

func (app *App) Render() error {
	if v := app.canvas.Version(); v != app.canvasVersion {
		app.canvasBlit.Upload(app.canvas.Image())
		app.canvasVersion = v
	}
	app.canvasBlit.Draw(image.Rectangle{Max: app.canvasBlit.Size()}, app.fbSize, false)

	var lines []string
	cursor := -1
	if app.showHUD {
		lines = app.hudLines()
	}
	if prompt := app.keys.Prompt(); prompt != nil {
		line, c := prompt.Line(app.text.Columns(app.fbSize.X) - 2)
		lines = append(lines, line)
		cursor = c
	}
	if len(lines) == 0 {
		return nil
	}
	hud := app.text.Render(lines, cursor)
	app.hudBlit.Upload(hud)
	app.hudBlit.Draw(hud.Bounds(), app.fbSize, true)
	return nil
}

func (app *App) Update() error {
	app.loop.Drain()
	return nil
}

func (app *App) Close() error {
	logger.Debug("Close")
	app.sched.Close()
	app.loop.Drain()
	if app.hudBlit != nil {
		app.hudBlit.Close()
	}
	if app.canvasBlit != nil {
		app.canvasBlit.Close()
	}
	return app.eval.Close()
}
