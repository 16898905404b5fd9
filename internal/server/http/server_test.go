package httpserver

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "github.com/rzbill/flightreview/internal/config"
	"github.com/rzbill/flightreview/internal/codec"
	"github.com/rzbill/flightreview/internal/metadata"
	"github.com/rzbill/flightreview/internal/runtime"
	"github.com/rzbill/flightreview/internal/ulog/ulogtest"
	logpkg "github.com/rzbill/flightreview/pkg/log"
)

func sampleLog() []byte {
	mode := func(ts uint64, v uint8) []byte {
		return ulogtest.NewPayload().U64(ts).U8(v).Pad(7).Bytes()
	}
	return ulogtest.New(0).
		Format("commander_state:uint64_t timestamp;uint8_t main_state;uint8_t[7] _padding0;").
		Subscribe(0, 0, "commander_state").
		Data(0, mode(10, 0)).
		Data(0, mode(20, 0)).
		Data(0, mode(30, 1)).
		Data(0, mode(40, 1)).
		Data(0, mode(50, 1)).
		Data(0, mode(60, 2)).
		Bytes()
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.LogDir = t.TempDir()
	cfg.Metadata.Backend = "none"
	if err := os.WriteFile(filepath.Join(cfg.LogDir, "abc.ulg"), sampleLog(), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.LogDir, "junk.ulg"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	store := metadata.NewMemoryStore(map[string]metadata.Metadata{"abc": {Description: "hover test", Rating: 4}})
	rt, err := runtime.Open(runtime.Options{Config: cfg, Store: store})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	return New(rt, logger)
}

func get(t *testing.T, s *Server, path, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/v1/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/logs/abc", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: %d %v", w.Code, w.Header())
	}
}

func TestDocumentHandler(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/v1/logs/abc", "")
	if w.Code != 200 {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var doc runtime.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.LogID != "abc" || doc.Metadata.Rating != 4 || doc.Summary.LastTimestamp != 60 {
		t.Fatalf("doc: %+v", doc)
	}
	if got := len(doc.Timelines["flight_mode"].Events); got != 4 {
		t.Fatalf("flight_mode events: %d", got)
	}
}

func TestDocumentHandlerCBOR(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/v1/logs/abc", "application/cbor")
	if w.Code != 200 || w.Header().Get("Content-Type") != codec.ContentTypeCBOR {
		t.Fatalf("status: %d ct=%s", w.Code, w.Header().Get("Content-Type"))
	}
	var doc runtime.Document
	if err := codec.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.LogID != "abc" || len(doc.Topics) != 1 {
		t.Fatalf("doc: %+v", doc)
	}
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		path string
		want int
	}{
		{"/v1/logs/a.b", http.StatusBadRequest},
		{"/v1/logs/missing", http.StatusNotFound},
		{"/v1/logs/junk", http.StatusUnprocessableEntity},
		{"/v1/logs/abc/topics/nope", http.StatusNotFound},
		{"/v1/logs/abc/topics/commander_state?instance=x", http.StatusBadRequest},
		{"/v1/logs/abc/topics/commander_state?where=timestamp%20%2B%201", http.StatusBadRequest},
		{"/v1/logs/abc/timelines/unknown", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			if w := get(t, s, tc.path, ""); w.Code != tc.want {
				t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestTopicHandlerFilters(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/v1/logs/abc/topics/commander_state?where=row.main_state%20%3E%3D%201&limit=2", "")
	if w.Code != 200 {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var v runtime.TableView
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Rows) != 2 || v.Timestamps[0] != 30 || v.Timestamps[1] != 40 {
		t.Fatalf("rows: %+v", v)
	}
	if len(v.Columns) != 1 || v.Columns[0] != "main_state" {
		t.Fatalf("columns: %v", v.Columns)
	}
}

func TestTopicStreamHandler(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/v1/logs/abc/topics/commander_state/stream?where=timestamp%20%3E%2040", "")
	if w.Code != 200 || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("status: %d ct=%s", w.Code, w.Header().Get("Content-Type"))
	}
	var events []string
	sc := bufio.NewScanner(strings.NewReader(w.Body.String()))
	for sc.Scan() {
		if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			events = append(events, name)
		}
	}
	want := []string{"columns", "row", "row", "end"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("events: %v", events)
	}
}

func TestTimelineHandler(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/v1/logs/abc/timelines/flight_mode", "")
	if w.Code != 200 {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var v runtime.TimelineView
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Events) != 4 || v.Labels[0] != "Manual" || v.Labels[3] != "Closed" {
		t.Fatalf("timeline: %+v", v)
	}

	w = get(t, s, "/v1/logs/abc/timelines/custom?topic=commander_state&field=main_state&intervals=1", "")
	if w.Code != 200 {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var iv struct {
		Intervals []runtime.IntervalView `json:"intervals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &iv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(iv.Intervals) != 3 || iv.Intervals[1].Start != 30 || iv.Intervals[1].End != 60 {
		t.Fatalf("intervals: %+v", iv.Intervals)
	}
}

func TestMetadataHandler(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/v1/logs/abc/metadata", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), "hover test") {
		t.Fatalf("metadata: %d %s", w.Code, w.Body.String())
	}
	w = get(t, s, "/v1/logs/unknown/metadata", "")
	if w.Code != 200 {
		t.Fatalf("unknown id status: %d", w.Code)
	}
}
