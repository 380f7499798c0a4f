package server

import (
	"context"
	"net/http"
	"time"

	"BTCChart/internal/model"
	"BTCChart/internal/render"
	"BTCChart/internal/widget"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeTimeout = 5 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// clientEvent is a message from the page. Pointer moves carry either a timestamp or
// an x position relative to a chart of the given width.
type clientEvent struct {
	Type      string   `json:"type"`
	Timeframe string   `json:"timeframe,omitempty"`
	Timestamp *int64   `json:"timestamp,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Width     float64  `json:"width,omitempty"`
}

type serverEvent struct {
	Type     string           `json:"type"`
	Snapshot *widget.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// WebSocket mounts one widget per connection. The widget lives exactly as long as the
// connection and its listener is detached on every exit path.
func (h *Handler) WebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	w := widget.New(h.store, h.recorder, h.log)
	defer w.Close()
	detach := w.Attach(func(s widget.Snapshot) {
		if err := writeEvent(conn, serverEvent{Type: "state", Snapshot: &s}); err != nil {
			h.log.Debugf("[%s] write state: %v", w.Session(), err)
		}
	})
	defer detach()

	h.log.Infof("[%s] widget mounted", w.Session())
	defer h.log.Infof("[%s] widget unmounted", w.Session())

	if err := h.mount(ctx, w, c.Query("timeframe"), c.Query("run")); err != nil {
		writeEvent(conn, serverEvent{Type: "error", Error: err.Error()})
		return
	}

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	go keepAlive(ctx, conn)

	limiter := rate.NewLimiter(rate.Limit(h.cfg.PointerRate), h.cfg.PointerBurst)
	if h.cfg.PointerRate <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	for {
		var evt clientEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnf("[%s] websocket read: %v", w.Session(), err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		h.dispatch(ctx, w, limiter, conn, evt)
	}
}

// mount loads the widget's first series. A page passes the run its chart image was
// drawn from so the pointer readout uses the same points. If that run is gone, a
// current one is loaded and the page swaps its image to the new run id.
func (h *Handler) mount(ctx context.Context, w *widget.Widget, timeframe, runID string) error {
	if runID != "" {
		_, err := w.SelectRun(runID)
		if err == nil {
			return nil
		}
		h.log.Debugf("[%s] %v, loading a current series", w.Session(), err)
	}
	tf := h.cfg.DefaultTimeframe
	if timeframe != "" {
		if parsed, err := model.ParseTimeframe(timeframe); err == nil {
			tf = parsed
		}
	}
	_, err := w.SelectTimeframe(ctx, tf)
	return err
}

func (h *Handler) dispatch(ctx context.Context, w *widget.Widget, limiter *rate.Limiter, conn *websocket.Conn, evt clientEvent) {
	switch evt.Type {
	case "timeframe":
		tf, err := model.ParseTimeframe(evt.Timeframe)
		if err == nil {
			_, err = w.SelectTimeframe(ctx, tf)
		}
		if err != nil {
			writeEvent(conn, serverEvent{Type: "error", Error: err.Error()})
		}
	case "pointermove":
		// excess moves are dropped; the next one catches up
		if !limiter.Allow() {
			return
		}
		switch {
		case evt.Timestamp != nil:
			w.PointerMove(*evt.Timestamp)
		case evt.X != nil:
			width := evt.Width
			if width <= 0 {
				width = float64(h.cfg.ChartWidth)
			}
			layout := render.LayoutFor(render.Options{Width: int(width), Height: h.cfg.ChartHeight})
			w.PointerMoveX(layout, *evt.X)
		default:
			writeEvent(conn, serverEvent{Type: "error", Error: "pointermove needs timestamp or x"})
		}
	case "pointerleave":
		w.PointerLeave()
	default:
		writeEvent(conn, serverEvent{Type: "error", Error: "unknown event type " + evt.Type})
	}
}

func writeEvent(conn *websocket.Conn, evt serverEvent) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(evt)
}

func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
