// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	flightreviewv1 "github.com/rzbill/flightreview/internal/api/v1"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// GrpcTransport implements LogTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withConn(ctx context.Context, fn func(conn *grpc.ClientConn) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(conn)
}

// Health reports whether the server answers SERVING.
func (t *GrpcTransport) Health(ctx context.Context) (bool, error) {
	var serving bool
	err := t.withConn(ctx, func(conn *grpc.ClientConn) error {
		res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
		if err != nil {
			return err
		}
		serving = res.GetStatus() == healthpb.HealthCheckResponse_SERVING
		return nil
	})
	return serving, err
}

// Summary fetches the bundle document of logID.
func (t *GrpcTransport) Summary(ctx context.Context, logID string) (*structpb.Struct, error) {
	var out *structpb.Struct
	err := t.withConn(ctx, func(conn *grpc.ClientConn) error {
		res, err := flightreviewv1.NewLogServiceClient(conn).GetSummary(ctx, flightreviewv1.LogIDRequest(logID))
		out = res
		return err
	})
	return out, err
}

// Timeline fetches one named timeline of logID.
func (t *GrpcTransport) Timeline(ctx context.Context, logID, name string) (*structpb.Struct, error) {
	var out *structpb.Struct
	err := t.withConn(ctx, func(conn *grpc.ClientConn) error {
		res, err := flightreviewv1.NewLogServiceClient(conn).GetTimeline(ctx, flightreviewv1.TimelineRequest(logID, name))
		out = res
		return err
	})
	return out, err
}

// Metadata fetches the stored metadata of logID.
func (t *GrpcTransport) Metadata(ctx context.Context, logID string) (*structpb.Struct, error) {
	var out *structpb.Struct
	err := t.withConn(ctx, func(conn *grpc.ClientConn) error {
		res, err := flightreviewv1.NewLogServiceClient(conn).GetMetadata(ctx, flightreviewv1.LogIDRequest(logID))
		out = res
		return err
	})
	return out, err
}
