package server

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BTCChart/internal/generator"
	"BTCChart/internal/model"
	"BTCChart/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var genTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) (*Handler, *store.Store) {
	t.Helper()
	return newTestHandlerMode(t, store.ModePregenerated)
}

func newTestHandlerMode(t *testing.T, mode store.Mode) (*Handler, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	gen := generator.New(rand.NewSource(1), func() time.Time { return genTime })
	st, err := store.New(context.Background(), gen, store.Options{Mode: mode, StartPrice: 60000, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(st, nil, Config{
		DefaultTimeframe: model.Timeframe1Day,
		ChartWidth:       600,
		ChartHeight:      300,
		PointerRate:      1000,
		PointerBurst:     1000,
	}, logger)
	return h, st
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestSeriesEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h)

	for _, tt := range []struct {
		path  string
		count int
	}{
		{"/v1/series/1d", 50},
		{"/v1/series/30", 100},
		{"/v1/series/1y", 365},
	} {
		rec := get(t, router, tt.path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", tt.path, rec.Code, rec.Body)
		}
		var body struct {
			Points []model.PricePoint `json:"points"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if len(body.Points) != tt.count {
			t.Errorf("%s: expected %d points, got %d", tt.path, tt.count, len(body.Points))
		}
	}

	if rec := get(t, router, "/v1/series/7d"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown timeframe, got %d", rec.Code)
	}
}

func TestDisplayEndpoint(t *testing.T) {
	h, st := newTestHandler(t)
	router := NewRouter(h)
	series, _ := st.Series(context.Background(), model.Timeframe1Day)

	var body struct {
		State    model.DisplayState `json:"state"`
		Headline string             `json:"headline"`
		Hover    *model.PricePoint  `json:"hover"`
	}
	rec := get(t, router, "/v1/display/1d")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if *body.State.DisplayPrice != series[len(series)-1].Price || body.Hover != nil {
		t.Errorf("expected last price without hover, got %+v", body)
	}

	target := series[7]
	rec = get(t, router, "/v1/display/1d?hover="+jsonInt(target.Timestamp+1000))
	body.Hover = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Hover == nil || *body.Hover != target {
		t.Errorf("expected hover on %v, got %v", target, body.Hover)
	}
	if *body.State.DisplayPrice != target.Price || !strings.HasPrefix(body.Headline, "$") {
		t.Errorf("unexpected display %+v", body)
	}

	if rec := get(t, router, "/v1/display/1d?hover=soon"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad hover, got %d", rec.Code)
	}
}

func TestChartEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h)

	rec := get(t, router, "/v1/chart/30")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("expected svg content type, got %q", ct)
	}

	rec = get(t, router, "/v1/chart/30?format=png&width=300")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected png, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	for _, q := range []string{"?format=gif", "?width=-3", "?height=abc"} {
		if rec := get(t, router, "/v1/chart/30"+q); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestPageAndTimeframes(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h)

	rec := get(t, router, "/?timeframe=365")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	page := rec.Body.String()
	for _, want := range []string{"<h2>BTC</h2>", `class="selected">1 Year`, "/v1/chart/365", "1 Day", "1 Month"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}

	rec = get(t, router, "/v1/timeframes")
	var tfs []timeframeInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &tfs); err != nil {
		t.Fatal(err)
	}
	if len(tfs) != 3 || tfs[0].Key != model.Timeframe1Day || tfs[2].Points != 365 {
		t.Errorf("unexpected timeframes %+v", tfs)
	}
}

func TestHistoryAndRefresh(t *testing.T) {
	h, st := newTestHandler(t)
	router := NewRouter(h)

	rec := get(t, router, "/v1/history")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty history, got %d %s", rec.Code, rec.Body)
	}
	if rec := get(t, router, "/v1/history?limit=0"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero limit, got %d", rec.Code)
	}

	before, _ := st.Series(context.Background(), model.Timeframe1Day)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/refresh", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	after, _ := st.Series(context.Background(), model.Timeframe1Day)
	if &before[0] == &after[0] {
		t.Error("expected refresh to replace the series")
	}
}

func TestWebSocketPointerFlow(t *testing.T) {
	h, st := newTestHandler(t)
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	read := func() serverEvent {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var evt serverEvent
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatal(err)
		}
		return evt
	}

	day, _ := st.Series(context.Background(), model.Timeframe1Day)
	evt := read()
	if evt.Type != "state" || evt.Snapshot.Timeframe != model.Timeframe1Day {
		t.Fatalf("expected initial 1d state, got %+v", evt)
	}
	if *evt.Snapshot.State.DisplayPrice != day[len(day)-1].Price {
		t.Errorf("expected last price on mount")
	}

	ts := day[3].Timestamp
	if err := conn.WriteJSON(clientEvent{Type: "pointermove", Timestamp: &ts}); err != nil {
		t.Fatal(err)
	}
	evt = read()
	if evt.Snapshot.Hover == nil || evt.Snapshot.Hover.Timestamp != ts {
		t.Errorf("expected hover at %d, got %+v", ts, evt.Snapshot.Hover)
	}

	x := 0.0
	if err := conn.WriteJSON(clientEvent{Type: "pointermove", X: &x, Width: 600}); err != nil {
		t.Fatal(err)
	}
	evt = read()
	if *evt.Snapshot.State.DisplayPrice != day[0].Price {
		t.Errorf("expected first price at left edge, got %v", *evt.Snapshot.State.DisplayPrice)
	}

	if err := conn.WriteJSON(clientEvent{Type: "pointerleave"}); err != nil {
		t.Fatal(err)
	}
	evt = read()
	if evt.Snapshot.Hover != nil || *evt.Snapshot.State.DisplayPrice != day[len(day)-1].Price {
		t.Errorf("expected fallback to last point, got %+v", evt.Snapshot)
	}

	if err := conn.WriteJSON(clientEvent{Type: "timeframe", Timeframe: "30"}); err != nil {
		t.Fatal(err)
	}
	evt = read()
	if evt.Snapshot.Timeframe != model.Timeframe30Days || evt.Snapshot.Points != 100 {
		t.Errorf("expected 30-day snapshot, got %+v", evt.Snapshot)
	}

	if err := conn.WriteJSON(clientEvent{Type: "timeframe", Timeframe: "7d"}); err != nil {
		t.Fatal(err)
	}
	if evt = read(); evt.Type != "error" {
		t.Errorf("expected error event, got %+v", evt)
	}
}

func TestFreshMode_ChartAndReadoutShareRun(t *testing.T) {
	h, st := newTestHandlerMode(t, store.ModeFresh)
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()
	router := NewRouter(h)

	var drawn struct {
		ID     string             `json:"id"`
		Points []model.PricePoint `json:"points"`
	}
	rec := get(t, router, "/v1/series/1d")
	if err := json.Unmarshal(rec.Body.Bytes(), &drawn); err != nil {
		t.Fatal(err)
	}
	if drawn.ID == "" || len(drawn.Points) != 50 {
		t.Fatalf("expected a 50-point run with an id, got %q with %d points", drawn.ID, len(drawn.Points))
	}

	if rec := get(t, router, "/v1/chart/1d?run="+drawn.ID); rec.Code != http.StatusOK {
		t.Errorf("expected chart for run, got %d: %s", rec.Code, rec.Body)
	}
	if rec := get(t, router, "/v1/chart/30?run="+drawn.ID); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a run of another timeframe, got %d", rec.Code)
	}
	if rec := get(t, router, "/v1/chart/1d?run=gone"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown run, got %d", rec.Code)
	}

	target := drawn.Points[10]
	var shown struct {
		Hover *model.PricePoint `json:"hover"`
	}
	rec = get(t, router, "/v1/display/1d?run="+drawn.ID+"&hover="+jsonInt(target.Timestamp))
	if err := json.Unmarshal(rec.Body.Bytes(), &shown); err != nil {
		t.Fatal(err)
	}
	if shown.Hover == nil || *shown.Hover != target {
		t.Errorf("expected display of drawn point %v, got %v", target, shown.Hover)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws?timeframe=1d&run=" + drawn.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	read := func() serverEvent {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var evt serverEvent
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatal(err)
		}
		return evt
	}

	evt := read()
	if evt.Snapshot == nil || evt.Snapshot.RunID != drawn.ID {
		t.Fatalf("expected widget on run %s, got %+v", drawn.ID, evt)
	}
	ts := target.Timestamp
	if err := conn.WriteJSON(clientEvent{Type: "pointermove", Timestamp: &ts}); err != nil {
		t.Fatal(err)
	}
	evt = read()
	if got := *evt.Snapshot.State.DisplayPrice; got != target.Price {
		t.Errorf("expected readout %v of the drawn point, got %v", target.Price, got)
	}

	// the page draws and mounts one run
	page := get(t, router, "/?timeframe=1d").Body.String()
	i := strings.Index(page, "/v1/chart/1d?run=")
	if i < 0 {
		t.Fatal("page has no chart image for a run")
	}
	id := page[i+len("/v1/chart/1d?run="):]
	id = id[:strings.IndexAny(id, "&\"")]
	if _, err := st.RunByID(id); err != nil {
		t.Errorf("page image refers to unknown run %q: %v", id, err)
	}
	if strings.Count(page, id) < 2 {
		t.Errorf("expected the websocket to mount the drawn run %s", id)
	}
}

func TestPage_CompactImageSize(t *testing.T) {
	h, _ := newTestHandler(t)
	h.cfg.ChartWidth = 400
	page := get(t, NewRouter(h), "/").Body.String()
	if !strings.Contains(page, `width="400" height="200"`) {
		t.Errorf("expected compact image size 400x200 on the page")
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
