package main

import (
	"runtime"

	gl "github.com/go-gl/gl/v3.1/gles2"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const desiredFPS = 60

func init() {
	runtime.LockOSThread()
}

// GlfwApp receives window events. Pointer positions are in framebuffer
// pixels with the origin at the top left.
type GlfwApp interface {
	Init() error
	IsRunning() bool
	OnKey(key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey)
	OnChar(char rune)
	OnMouseButton(button glfw.MouseButton, action glfw.Action, x, y float64)
	OnCursorPos(x, y float64)
	OnScroll(x, y, yoff float64)
	OnCursorEnter(entered bool)
	OnFramebufferSize(width, height int)
	Render() error
	Update() error
	Close() error
}

type windowOptions struct {
	title         string
	width, height int
	fullscreen    bool
}

func WithGL(opts windowOptions, app GlfwApp) error {
	err := glfw.Init()
	if err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Focused, glfw.True)
	glfw.WindowHint(glfw.AutoIconify, glfw.False)
	glfw.WindowHint(glfw.DoubleBuffer, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)

	width, height := opts.width, opts.height
	var monitor *glfw.Monitor
	if opts.fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		if monitor != nil {
			if mode := monitor.GetVideoMode(); mode != nil {
				width, height = mode.Width, mode.Height
				glfw.WindowHint(glfw.RefreshRate, mode.RefreshRate)
			}
		}
	}
	window, err := glfw.CreateWindow(width, height, opts.title, monitor, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	// cursor positions arrive in screen coordinates
	toPixels := func(x, y float64) (float64, float64) {
		ww, wh := window.GetSize()
		fw, fh := window.GetFramebufferSize()
		if ww == 0 || wh == 0 {
			return x, y
		}
		return x * float64(fw) / float64(ww), y * float64(fh) / float64(wh)
	}

	framebufferSizeCallback := func(w *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		app.OnFramebufferSize(width, height)
	}
	window.SetFramebufferSizeCallback(framebufferSizeCallback)
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		app.OnKey(key, scancode, action, mods)
	})
	window.SetCharCallback(func(w *glfw.Window, char rune) {
		app.OnChar(char)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		x, y := toPixels(w.GetCursorPos())
		app.OnMouseButton(button, action, x, y)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		app.OnCursorPos(toPixels(x, y))
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		x, y := toPixels(w.GetCursorPos())
		app.OnScroll(x, y, yoff)
	})
	window.SetCursorEnterCallback(func(w *glfw.Window, entered bool) {
		app.OnCursorEnter(entered)
	})

	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return err
	}
	fw, fh := window.GetFramebufferSize()
	framebufferSizeCallback(nil, fw, fh)
	if err := app.Init(); err != nil {
		return err
	}
	defer app.Close()
	for app.IsRunning() && !window.ShouldClose() {
		start := glfw.GetTime()
		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		if err := app.Render(); err != nil {
			return err
		}
		window.SwapBuffers()
		elapsedSeconds := glfw.GetTime() - start
		frameSeconds := 1.0 / desiredFPS
		if frameSeconds > elapsedSeconds {
			glfw.WaitEventsTimeout(frameSeconds - elapsedSeconds)
		} else {
			glfw.PollEvents()
		}
		if err := app.Update(); err != nil {
			return err
		}
	}
	return nil
}
