package frustal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// maxFrame bounds a single pixel payload.
const maxFrame = 1 << 28

type regionRequest struct {
	Domain  Domain          `json:"domain"`
	Options Options         `json:"options"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Step    int             `json:"step"`
	Rect    image.Rectangle `json:"rect"`
}

type regionResponse struct {
	Rect  image.Rectangle `json:"rect"`
	Error string          `json:"error,omitempty"`
}

// RemoteEvaluator sends every call to a worker over one websocket
// connection. Requests are serialized: each one is a JSON message answered
// by a JSON header and, on success, a binary message with the pixels.
// A transport error drops the connection and the next call redials.
type RemoteEvaluator struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn // nil while disconnected

	size         Box[image.Point]
	previewScale Box[int]
	last         Box[snapshot]
}

// DialRemote connects to a worker at url (ws:// or wss://).
func DialRemote(ctx context.Context, url string, w, h, previewScale int) (*RemoteEvaluator, error) {
	e := &RemoteEvaluator{url: url}
	if err := e.connect(ctx); err != nil {
		return nil, err
	}
	e.size.Set(image.Pt(w, h))
	e.previewScale.Set(max(previewScale, 1))
	e.last.Set(snapshot{d: DefaultDomain(), o: DefaultOptions()})
	return e, nil
}

func (e *RemoteEvaluator) connect(ctx context.Context) error {
	c, _, err := websocket.Dial(ctx, e.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", e.url, err)
	}
	c.SetReadLimit(maxFrame)
	e.conn = c
	return nil
}

func (e *RemoteEvaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close(websocket.StatusNormalClosure, "")
	e.conn = nil
	return err
}

func (e *RemoteEvaluator) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("resize %dx%d: %w", w, h, ErrOutOfRange)
	}
	e.size.Set(image.Pt(w, h))
	return nil
}

func (e *RemoteEvaluator) ResizePreview(scale int) error {
	if scale < 1 {
		return paramErr("previewScale", scale, ErrOutOfRange)
	}
	e.previewScale.Set(scale)
	return nil
}

func (e *RemoteEvaluator) Snapshot() (Domain, Options) {
	s := e.last.Get()
	return s.d, s.o
}

func (e *RemoteEvaluator) PreviewRender(ctx context.Context, d Domain, o Options) (*image.RGBA, error) {
	e.last.Set(snapshot{d, o})
	size := e.size.Get()
	scale := e.previewScale.Get()
	return e.call(ctx, regionRequest{
		Domain: d, Options: o,
		Width: size.X, Height: size.Y, Step: scale,
		Rect: image.Rectangle{Max: PreviewSize(size.X, size.Y, scale)},
	})
}

func (e *RemoteEvaluator) PartialRender(ctx context.Context, d Domain, o Options, total, index int) (*image.RGBA, error) {
	if total <= 0 || index < 0 || index >= total {
		return nil, fmt.Errorf("chunk %d of %d: %w", index, total, ErrOutOfRange)
	}
	e.last.Set(snapshot{d, o})
	size := e.size.Get()
	return e.call(ctx, regionRequest{
		Domain: d, Options: o,
		Width: size.X, Height: size.Y, Step: 1,
		Rect: ChunkRect(size.X, size.Y, total, index),
	})
}

// call performs one round trip, dialling first if the previous connection
// was dropped. Cancelling ctx closes the connection.
func (e *RemoteEvaluator) call(ctx context.Context, req regionRequest) (*image.RGBA, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		if err := e.connect(ctx); err != nil {
			return nil, err
		}
	}
	resp, pix, err := e.exchange(ctx, req)
	if err != nil {
		// the message stream is out of step after a transport error
		e.conn.CloseNow()
		e.conn = nil
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("worker: %s", resp.Error)
	}
	r := resp.Rect
	if len(pix) != 4*r.Dx()*r.Dy() {
		return nil, fmt.Errorf("read pixels: got %d bytes for %v", len(pix), r)
	}
	return &image.RGBA{Pix: pix, Stride: 4 * r.Dx(), Rect: r}, nil
}

// exchange sends req and reads the header and, unless the worker reported
// an error, the pixels.
func (e *RemoteEvaluator) exchange(ctx context.Context, req regionRequest) (regionResponse, []byte, error) {
	var resp regionResponse
	if err := wsjson.Write(ctx, e.conn, req); err != nil {
		return resp, nil, fmt.Errorf("send request: %w", err)
	}
	if err := wsjson.Read(ctx, e.conn, &resp); err != nil {
		return resp, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.Error != "" {
		return resp, nil, nil
	}
	typ, pix, err := e.conn.Read(ctx)
	if err != nil {
		return resp, nil, fmt.Errorf("read pixels: %w", err)
	}
	if typ != websocket.MessageBinary {
		return resp, nil, errors.New("read pixels: expected binary message")
	}
	return resp, pix, nil
}

type workerHandler struct {
	log     *slog.Logger
	workers int
}

// NewWorkerHandler returns the websocket endpoint RemoteEvaluator talks to.
// Each connection is served sequentially until the peer goes away.
func NewWorkerHandler(log *slog.Logger, workers int) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return &workerHandler{log: log, workers: workers}
}

func (h *workerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer c.CloseNow()
	h.log.Info("client connected", "remote", r.RemoteAddr)
	err = h.serve(r.Context(), c)
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		h.log.Info("client disconnected", "remote", r.RemoteAddr)
	default:
		h.log.Warn("connection closed", "remote", r.RemoteAddr, "error", err)
	}
}

func (h *workerHandler) serve(ctx context.Context, c *websocket.Conn) error {
	for {
		var req regionRequest
		if err := wsjson.Read(ctx, c, &req); err != nil {
			return err
		}
		img, err := h.render(ctx, req)
		if err != nil {
			h.log.Debug("render failed", "rect", req.Rect, "error", err)
			if err := wsjson.Write(ctx, c, regionResponse{Rect: req.Rect, Error: err.Error()}); err != nil {
				return err
			}
			continue
		}
		if err := wsjson.Write(ctx, c, regionResponse{Rect: img.Rect}); err != nil {
			return err
		}
		if err := c.Write(ctx, websocket.MessageBinary, img.Pix); err != nil {
			return err
		}
	}
}

func (h *workerHandler) render(ctx context.Context, req regionRequest) (*image.RGBA, error) {
	if err := checkRegion(req.Width, req.Height, req.Step, req.Rect); err != nil {
		return nil, err
	}
	// written as a division so huge rectangles cannot overflow
	if dx := req.Rect.Dx(); dx > 0 && req.Rect.Dy() > maxFrame/4/dx {
		return nil, fmt.Errorf("rect %v: %w", req.Rect, ErrOutOfRange)
	}
	return RenderRegion(ctx, req.Domain, req.Options, req.Width, req.Height, req.Step, req.Rect, h.workers)
}
