// Package widget holds the state of one chart instance: the selected timeframe, its
// series and the headline derived from pointer activity.
//
// A Widget is driven by a single goroutine (a WebSocket read loop or a terminal update
// loop). Each handler runs to completion before the next event is processed, so the
// widget itself does no locking around its state.
package widget

import (
	"context"
	"fmt"
	"sync"

	"BTCChart/internal/display"
	"BTCChart/internal/model"
	"BTCChart/internal/recorder"
	"BTCChart/internal/render"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SeriesProvider supplies generated runs, either the current one for a timeframe or
// a specific earlier one by id.
type SeriesProvider interface {
	Run(ctx context.Context, tf model.Timeframe) (*model.SeriesRun, error)
	RunByID(id string) (*model.SeriesRun, error)
}

// Snapshot is what listeners receive after every event.
type Snapshot struct {
	Session   string             `json:"session"`
	RunID     string             `json:"run_id"`
	Timeframe model.Timeframe    `json:"timeframe"`
	Label     string             `json:"label"`
	State     model.DisplayState `json:"state"`
	Headline  string             `json:"headline"`
	Hover     *model.PricePoint  `json:"hover,omitempty"`
	Points    int                `json:"points"`
}

// Listener is notified with the snapshot produced by each event.
type Listener func(Snapshot)

// Widget is one chart instance.
type Widget struct {
	session   string
	provider  SeriesProvider
	recorder  recorder.Recorder
	log       *logrus.Logger
	timeframe model.Timeframe
	runID     string
	series    model.Series
	state     model.DisplayState
	hover     *model.PricePoint

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New creates a widget with no timeframe selected. Call SelectTimeframe to load data.
func New(provider SeriesProvider, rec recorder.Recorder, logger *logrus.Logger) *Widget {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Widget{
		session:   uuid.NewString(),
		provider:  provider,
		recorder:  rec,
		log:       logger,
		listeners: make(map[int]Listener),
	}
}

func (w *Widget) Session() string            { return w.session }
func (w *Widget) RunID() string              { return w.runID }
func (w *Widget) Timeframe() model.Timeframe { return w.timeframe }
func (w *Widget) Series() model.Series       { return w.series }

// Attach registers l and returns the function that removes it. The returned detach
// is safe to call more than once.
func (w *Widget) Attach(l Listener) (detach func()) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = l
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.listeners, id)
			w.mu.Unlock()
		})
	}
}

// Listeners reports how many listeners are attached.
func (w *Widget) Listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}

// Close detaches every listener.
func (w *Widget) Close() {
	w.mu.Lock()
	w.listeners = make(map[int]Listener)
	w.mu.Unlock()
}

// SelectTimeframe loads the series for tf and resets the headline to its latest point.
func (w *Widget) SelectTimeframe(ctx context.Context, tf model.Timeframe) (Snapshot, error) {
	if !tf.Valid() {
		return w.Snapshot(), fmt.Errorf("unknown timeframe %q", tf)
	}
	run, err := w.provider.Run(ctx, tf)
	if err != nil {
		return w.Snapshot(), fmt.Errorf("load series %s: %w", tf, err)
	}
	return w.show(run), nil
}

// SelectRun shows a run produced earlier, such as the one an already drawn chart was
// rendered from.
func (w *Widget) SelectRun(id string) (Snapshot, error) {
	run, err := w.provider.RunByID(id)
	if err != nil {
		return w.Snapshot(), err
	}
	return w.show(run), nil
}

func (w *Widget) show(run *model.SeriesRun) Snapshot {
	w.timeframe = run.Timeframe
	w.runID = run.ID
	w.series = run.Points
	w.hover = nil
	w.state = display.Derive(w.series, nil)

	if err := w.recorder.RecordSwitch(&recorder.SwitchEvent{
		Session:   w.session,
		Timeframe: run.Timeframe,
		State:     w.state,
	}); err != nil {
		w.log.Warnf("[%s] record timeframe switch: %v", w.session, err)
	}
	return w.emit()
}

// PointerMove shows the point nearest to ts.
func (w *Widget) PointerMove(ts int64) Snapshot {
	state, p, ok := display.DeriveAt(w.series, ts)
	if !ok {
		return w.PointerLeave()
	}
	w.state = state
	w.hover = &p
	return w.emit()
}

// PointerMoveX maps an x position on a chart drawn with layout and shows the nearest point.
func (w *Widget) PointerMoveX(layout render.Layout, x float64) Snapshot {
	ts, ok := layout.TimestampAt(w.series, x)
	if !ok {
		return w.PointerLeave()
	}
	return w.PointerMove(ts)
}

// PointerLeave falls back to the latest point.
func (w *Widget) PointerLeave() Snapshot {
	w.hover = nil
	w.state = display.Derive(w.series, nil)
	return w.emit()
}

// Snapshot returns the current state without notifying listeners.
func (w *Widget) Snapshot() Snapshot {
	snap := Snapshot{
		Session:   w.session,
		RunID:     w.runID,
		Timeframe: w.timeframe,
		Label:     w.timeframe.Label(),
		State:     w.state,
		Headline:  render.Headline(w.state),
		Points:    len(w.series),
	}
	if w.hover != nil {
		h := *w.hover
		snap.Hover = &h
	}
	return snap
}

func (w *Widget) emit() Snapshot {
	snap := w.Snapshot()
	w.mu.Lock()
	ls := make([]Listener, 0, len(w.listeners))
	for _, l := range w.listeners {
		ls = append(ls, l)
	}
	w.mu.Unlock()
	for _, l := range ls {
		l(snap)
	}
	return snap
}
