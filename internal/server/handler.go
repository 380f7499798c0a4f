package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"BTCChart/internal/display"
	"BTCChart/internal/model"
	"BTCChart/internal/recorder"
	"BTCChart/internal/render"
	"BTCChart/internal/widget"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SeriesStore is the part of the store the HTTP layer needs.
type SeriesStore interface {
	Run(ctx context.Context, tf model.Timeframe) (*model.SeriesRun, error)
	RunByID(id string) (*model.SeriesRun, error)
	Refresh(ctx context.Context) error
}

// Config holds handler settings.
type Config struct {
	DefaultTimeframe model.Timeframe
	ChartWidth       int
	ChartHeight      int
	PointerRate      float64
	PointerBurst     int
}

// Handler serves the chart page and API.
type Handler struct {
	store    SeriesStore
	recorder recorder.Recorder
	cfg      Config
	log      *logrus.Logger
}

func NewHandler(store SeriesStore, rec recorder.Recorder, cfg Config, logger *logrus.Logger) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if !cfg.DefaultTimeframe.Valid() {
		cfg.DefaultTimeframe = model.Timeframe1Day
	}
	return &Handler{store: store, recorder: rec, cfg: cfg, log: logger}
}

type timeframeInfo struct {
	Key      model.Timeframe `json:"key"`
	Label    string          `json:"label"`
	Points   int             `json:"points"`
	Interval string          `json:"interval"`
}

func (h *Handler) Timeframes(c *gin.Context) {
	out := make([]timeframeInfo, 0, len(model.Timeframes))
	for _, tf := range model.Timeframes {
		p, _ := tf.Params()
		out = append(out, timeframeInfo{Key: tf, Label: p.Label, Points: p.Points, Interval: p.Interval.String()})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Series(c *gin.Context) {
	tf, ok := h.timeframe(c)
	if !ok {
		return
	}
	run, ok := h.run(c, tf)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           run.ID,
		"timeframe":    run.Timeframe,
		"label":        tf.Label(),
		"generated_at": run.GeneratedAt,
		"points":       run.Points,
	})
}

func (h *Handler) Display(c *gin.Context) {
	tf, ok := h.timeframe(c)
	if !ok {
		return
	}
	hover, ok := h.hoverParam(c)
	if !ok {
		return
	}
	run, ok := h.run(c, tf)
	if !ok {
		return
	}
	series := run.Points

	state := display.Derive(series, nil)
	var point *model.PricePoint
	if hover != nil {
		if st, p, found := display.DeriveAt(series, *hover); found {
			state, point = st, &p
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"timeframe": tf,
		"run_id":    run.ID,
		"state":     state,
		"headline":  render.Headline(state),
		"hover":     point,
	})
}

func (h *Handler) Chart(c *gin.Context) {
	tf, ok := h.timeframe(c)
	if !ok {
		return
	}
	opts, ok := h.chartOptions(c)
	if !ok {
		return
	}
	hover, ok := h.hoverParam(c)
	if !ok {
		return
	}
	run, ok := h.run(c, tf)
	if !ok {
		return
	}
	series := run.Points
	if hover != nil {
		if _, p, found := display.DeriveAt(series, *hover); found {
			opts.Hover = &p
		}
	}

	var buf bytes.Buffer
	if err := render.RenderChart(&buf, series, opts); err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, opts.Format.ContentType(), buf.Bytes())
}

func (h *Handler) History(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.fail(c, http.StatusBadRequest, errBadQuery("limit", v))
			return
		}
		limit = n
	}
	runs, err := h.recorder.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []recorder.RunSummary{}
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handler) Refresh(c *gin.Context) {
	if err := h.store.Refresh(c.Request.Context()); err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed_at": time.Now()})
}

type pageButton struct {
	Key      model.Timeframe
	Label    string
	Selected bool
}

type pageData struct {
	Timeframe   model.Timeframe
	RunID       string
	Headline    string
	Up          bool
	ChartWidth  int
	ChartHeight int
	PadLeft     float64
	PadRight    float64
	Buttons     []pageButton
}

// Page renders the widget. The selected timeframe comes from ?timeframe=.
func (h *Handler) Page(c *gin.Context) {
	tf := h.cfg.DefaultTimeframe
	if v := c.Query("timeframe"); v != "" {
		parsed, err := model.ParseTimeframe(v)
		if err != nil {
			h.fail(c, http.StatusBadRequest, err)
			return
		}
		tf = parsed
	}

	w := widget.New(h.store, h.recorder, h.log)
	snap, err := w.SelectTimeframe(c.Request.Context(), tf)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	chartOpts := render.Options{Width: h.cfg.ChartWidth, Height: h.cfg.ChartHeight}
	width, height := chartOpts.Size()
	layout := render.LayoutFor(chartOpts)
	data := pageData{
		Timeframe:   tf,
		RunID:       snap.RunID,
		Headline:    snap.Headline,
		Up:          snap.State.Direction() != model.DirectionDown,
		ChartWidth:  width,
		ChartHeight: height,
		PadLeft:     layout.PadLeft,
		PadRight:    layout.PadRight,
	}
	for _, key := range model.Timeframes {
		data.Buttons = append(data.Buttons, pageButton{Key: key, Label: key.Label(), Selected: key == tf})
	}
	c.HTML(http.StatusOK, "page", data)
}

func (h *Handler) timeframe(c *gin.Context) (model.Timeframe, bool) {
	tf, err := model.ParseTimeframe(c.Param("timeframe"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return "", false
	}
	return tf, true
}

// run resolves the series a request refers to: the run named by ?run= when given,
// otherwise the store's run for tf. Requests for the same run id see the same points.
func (h *Handler) run(c *gin.Context, tf model.Timeframe) (*model.SeriesRun, bool) {
	if id := c.Query("run"); id != "" {
		run, err := h.store.RunByID(id)
		if err != nil {
			h.fail(c, http.StatusNotFound, err)
			return nil, false
		}
		if run.Timeframe != tf {
			h.fail(c, http.StatusBadRequest, fmt.Errorf("run %s is a %s series, not %s", id, run.Timeframe, tf))
			return nil, false
		}
		return run, true
	}
	run, err := h.store.Run(c.Request.Context(), tf)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return nil, false
	}
	return run, true
}

func (h *Handler) hoverParam(c *gin.Context) (*int64, bool) {
	v := c.Query("hover")
	if v == "" {
		return nil, true
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		h.fail(c, http.StatusBadRequest, errBadQuery("hover", v))
		return nil, false
	}
	return &ts, true
}

func (h *Handler) chartOptions(c *gin.Context) (render.Options, bool) {
	opts := render.Options{Width: h.cfg.ChartWidth, Height: h.cfg.ChartHeight, Format: render.FormatSVG}
	switch f := c.DefaultQuery("format", "svg"); f {
	case "svg":
	case "png":
		opts.Format = render.FormatPNG
	default:
		h.fail(c, http.StatusBadRequest, errBadQuery("format", f))
		return opts, false
	}
	for name, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 4000 {
			h.fail(c, http.StatusBadRequest, errBadQuery(name, v))
			return opts, false
		}
		*dst = n
	}
	return opts, true
}

func (h *Handler) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func errBadQuery(name, value string) error {
	return fmt.Errorf("invalid %s %q", name, value)
}
