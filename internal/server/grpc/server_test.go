package grpcserver

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	flightreviewv1 "github.com/rzbill/flightreview/internal/api/v1"
	cfgpkg "github.com/rzbill/flightreview/internal/config"
	"github.com/rzbill/flightreview/internal/metadata"
	"github.com/rzbill/flightreview/internal/runtime"
	"github.com/rzbill/flightreview/internal/ulog/ulogtest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1 << 20

func dialer(s *grpc.Server) func(context.Context, string) (net.Conn, error) {
	lis := bufconn.Listen(bufSize)
	go func() { _ = s.Serve(lis) }()
	return func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
}

func sampleLog() []byte {
	mode := func(ts uint64, v uint8) []byte {
		return ulogtest.NewPayload().U64(ts).U8(v).Pad(7).Bytes()
	}
	return ulogtest.New(0).
		Format("commander_state:uint64_t timestamp;uint8_t main_state;uint8_t[7] _padding0;").
		Subscribe(0, 0, "commander_state").
		Data(0, mode(10, 0)).
		Data(0, mode(30, 1)).
		Data(0, mode(60, 2)).
		Bytes()
}

func newTestConn(t *testing.T) (*grpc.ClientConn, context.Context) {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.LogDir = t.TempDir()
	cfg.Metadata.Backend = "none"
	if err := os.WriteFile(filepath.Join(cfg.LogDir, "abc.ulg"), sampleLog(), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	store := metadata.NewMemoryStore(map[string]metadata.Metadata{"abc": {VideoURL: "https://example.com/v"}})
	rt, err := runtime.Open(runtime.Options{Config: cfg, Store: store})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	srv := New(rt, nil)
	d := dialer(srv.grpc)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(d), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		rt.Close()
		cancel()
	})
	return conn, ctx
}

func TestHealthOverGRPC(t *testing.T) {
	conn, ctx := newTestConn(t)
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status: %v", res.GetStatus())
	}
}

func TestGetSummaryOverGRPC(t *testing.T) {
	conn, ctx := newTestConn(t)
	c := flightreviewv1.NewLogServiceClient(conn)
	res, err := c.GetSummary(ctx, flightreviewv1.LogIDRequest("abc"))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got := res.GetFields()["logId"].GetStringValue(); got != "abc" {
		t.Fatalf("logId: %q", got)
	}
	summary := res.GetFields()["summary"].GetStructValue()
	if got := summary.GetFields()["lastTimestamp"].GetNumberValue(); got != 60 {
		t.Fatalf("lastTimestamp: %v", got)
	}
	md := res.GetFields()["metadata"].GetStructValue()
	if got := md.GetFields()["videoUrl"].GetStringValue(); got != "https://example.com/v" {
		t.Fatalf("videoUrl: %q", got)
	}
}

func TestGetTimelineOverGRPC(t *testing.T) {
	conn, ctx := newTestConn(t)
	c := flightreviewv1.NewLogServiceClient(conn)
	res, err := c.GetTimeline(ctx, flightreviewv1.TimelineRequest("abc", "flight_mode"))
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	events := res.GetFields()["events"].GetListValue().GetValues()
	labels := res.GetFields()["labels"].GetListValue().GetValues()
	if len(events) != 4 || len(labels) != 4 || labels[1].GetStringValue() != "Altitude" {
		t.Fatalf("timeline: %v", res)
	}
}

func TestErrorCodesOverGRPC(t *testing.T) {
	conn, ctx := newTestConn(t)
	c := flightreviewv1.NewLogServiceClient(conn)
	cases := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"invalid id", func() error { _, err := c.GetSummary(ctx, flightreviewv1.LogIDRequest("../x")); return err }, codes.InvalidArgument},
		{"missing log", func() error { _, err := c.GetSummary(ctx, flightreviewv1.LogIDRequest("nope")); return err }, codes.NotFound},
		{"unknown timeline", func() error { _, err := c.GetTimeline(ctx, flightreviewv1.TimelineRequest("abc", "x")); return err }, codes.NotFound},
		{"no timeline name", func() error { _, err := c.GetTimeline(ctx, flightreviewv1.LogIDRequest("abc")); return err }, codes.InvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := status.Code(tc.call()); got != tc.want {
				t.Fatalf("code: %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetMetadataUnknownIsEmpty(t *testing.T) {
	conn, ctx := newTestConn(t)
	res, err := flightreviewv1.NewLogServiceClient(conn).GetMetadata(ctx, flightreviewv1.LogIDRequest("other"))
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if res.GetFields()["rating"].GetNumberValue() != 0 {
		t.Fatalf("metadata: %v", res)
	}
}
