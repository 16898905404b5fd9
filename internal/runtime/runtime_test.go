package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	cfgpkg "github.com/rzbill/flightreview/internal/config"
	"github.com/rzbill/flightreview/internal/metadata"
	"github.com/rzbill/flightreview/internal/timeline"
	"github.com/rzbill/flightreview/internal/ulog"
	"github.com/rzbill/flightreview/internal/ulog/ulogtest"
	"github.com/rzbill/flightreview/pkg/id"
)

func sampleLog() []byte {
	mode := func(ts uint64, v uint8) []byte {
		return ulogtest.NewPayload().U64(ts).U8(v).Pad(7).Bytes()
	}
	return ulogtest.New(0).
		Format("commander_state:uint64_t timestamp;uint8_t main_state;uint8_t[7] _padding0;").
		Format("vehicle_attitude:uint64_t timestamp;float[4] q;").
		ParamInt32("MAV_TYPE", 2).
		InfoString("ver_sw", "deadbeefcafe").
		Subscribe(0, 0, "commander_state").
		Subscribe(1, 0, "vehicle_attitude").
		Data(0, mode(10, 0)).
		Data(0, mode(20, 0)).
		Data(1, ulogtest.NewPayload().U64(25).F32(1).F32(0).F32(0).F32(0).Bytes()).
		Data(0, mode(30, 1)).
		Data(0, mode(40, 1)).
		Data(0, mode(50, 1)).
		Data(0, mode(60, 2)).
		Bytes()
}

func testConfig(t *testing.T) cfgpkg.Config {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.LogDir = t.TempDir()
	cfg.Metadata.Backend = "none"
	return cfg
}

func openRuntime(t *testing.T, cfg cfgpkg.Config, store metadata.Store) *Runtime {
	t.Helper()
	rt, err := Open(Options{Config: cfg, Store: store})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestOpenCloseHealth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metadata = cfgpkg.Metadata{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "logs.sqlite")}
	rt := openRuntime(t, cfg, nil)
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}

	cfg.LogDir = filepath.Join(cfg.LogDir, "missing")
	rt2 := openRuntime(t, cfg, metadata.NewMemoryStore(nil))
	if err := rt2.CheckHealth(context.Background()); err == nil {
		t.Fatalf("expected health error for missing log dir")
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ZeroTimestampPolicy = "maybe"
	if _, err := Open(Options{Config: cfg}); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestReview(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.LogDir, "abc.ulg"), sampleLog(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := metadata.NewMemoryStore(map[string]metadata.Metadata{"abc": {Rating: 5, Description: "hover"}})
	rt := openRuntime(t, cfg, store)

	b, err := rt.Review(context.Background(), "abc")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	want := timeline.Timeline{{Timestamp: 10, Value: 0}, {Timestamp: 30, Value: 1}, {Timestamp: 60, Value: 2}, {Timestamp: 60, Value: timeline.ClosedMode}}
	got := b.Timelines["flight_mode"]
	if len(got) != len(want) {
		t.Fatalf("flight_mode: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("flight_mode: %v", got)
		}
	}
	if len(b.Timelines["nav_state"]) != 0 {
		t.Fatalf("nav_state should be empty without vehicle_status: %v", b.Timelines["nav_state"])
	}
	if b.Metadata.Rating != 5 || b.Summary.VehicleType != "Quadrotor" || b.Summary.SoftwareVersion != "deadbeef" {
		t.Fatalf("bundle: %+v %+v", b.Metadata, b.Summary)
	}
	att, ok := b.Log.Topic("vehicle_attitude", 0)
	if !ok {
		t.Fatalf("vehicle_attitude missing")
	}
	if _, ok := att.Column("roll"); !ok {
		t.Fatalf("attitude angles not derived")
	}

	doc := b.Document()
	if len(doc.Topics) != 2 || doc.Timelines["flight_mode"].Labels[1] != "Altitude" {
		t.Fatalf("document: %+v", doc)
	}
}

func TestReviewCompressedLog(t *testing.T) {
	cfg := testConfig(t)
	f, err := os.Create(filepath.Join(cfg.LogDir, "zz.ulg.zst"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw, _ := zstd.NewWriter(f)
	zw.Write(sampleLog())
	zw.Close()
	f.Close()

	rt := openRuntime(t, cfg, nil)
	b, err := rt.Review(context.Background(), "zz")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if b.Summary.LastTimestamp != 60 {
		t.Fatalf("summary: %+v", b.Summary)
	}
}

func TestReviewErrors(t *testing.T) {
	cfg := testConfig(t)
	os.WriteFile(filepath.Join(cfg.LogDir, "bad.ulg"), []byte("not a ulog file at all"), 0o644)
	rt := openRuntime(t, cfg, nil)
	ctx := context.Background()

	var verr *id.ValidationError
	if _, err := rt.Review(ctx, "../bad"); !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if _, err := rt.Review(ctx, "nope"); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("want ErrLogNotFound, got %v", err)
	}
	var ferr *ulog.FormatError
	if _, err := rt.Review(ctx, "bad"); !errors.As(err, &ferr) {
		t.Fatalf("want FormatError, got %v", err)
	}
}

func TestLoadHonorsCancellation(t *testing.T) {
	rt := openRuntime(t, testConfig(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "x.ulg")
	os.WriteFile(path, sampleLog(), 0o644)
	if _, err := rt.LoadFile(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestRender(t *testing.T) {
	cfg := testConfig(t)
	os.WriteFile(filepath.Join(cfg.LogDir, "abc.ulg"), sampleLog(), 0o644)
	rt := openRuntime(t, cfg, nil)
	var seen *Bundle
	err := rt.Render(context.Background(), "abc", RendererFunc(func(_ context.Context, b *Bundle) error {
		seen = b
		return nil
	}))
	if err != nil || seen == nil || seen.LogID != "abc" {
		t.Fatalf("render: %v %v", seen, err)
	}
	if !seen.Metadata.IsZero() {
		t.Fatalf("no store means empty metadata: %+v", seen.Metadata)
	}
}

func TestTableView(t *testing.T) {
	rt := openRuntime(t, testConfig(t), nil)
	path := filepath.Join(t.TempDir(), "x.ulg")
	os.WriteFile(path, sampleLog(), 0o644)
	l, err := rt.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cs, _ := l.Topic("commander_state", 0)
	v := Table(cs, []int{0, 5})
	if len(v.Rows) != 2 || v.Timestamps[1] != 60 || v.Rows[1][0] != uint8(2) {
		t.Fatalf("table: %+v", v)
	}
	if all := Table(cs, nil); len(all.Rows) != 6 {
		t.Fatalf("all rows: %d", len(all.Rows))
	}
}
