// Package flightreviewv1 defines the flightreview.v1.LogService gRPC
// contract. Requests and responses are google.protobuf.Struct values so the
// service needs no generated message types.
package flightreviewv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	LogServiceName = "flightreview.v1.LogService"

	LogService_GetSummary_FullMethodName  = "/flightreview.v1.LogService/GetSummary"
	LogService_GetTimeline_FullMethodName = "/flightreview.v1.LogService/GetTimeline"
	LogService_GetMetadata_FullMethodName = "/flightreview.v1.LogService/GetMetadata"
)

// Request field names.
const (
	FieldLogID    = "log_id"
	FieldTimeline = "name"
)

// LogServiceServer is the server API for LogService.
type LogServiceServer interface {
	// GetSummary returns the bundle document of {log_id}.
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetTimeline returns the timeline {name} of {log_id}.
	GetTimeline(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetMetadata returns the stored metadata of {log_id}.
	GetMetadata(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedLogServiceServer can be embedded to satisfy LogServiceServer.
type UnimplementedLogServiceServer struct{}

func (UnimplementedLogServiceServer) GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSummary not implemented")
}

func (UnimplementedLogServiceServer) GetTimeline(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTimeline not implemented")
}

func (UnimplementedLogServiceServer) GetMetadata(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMetadata not implemented")
}

// RegisterLogServiceServer registers srv with s.
func RegisterLogServiceServer(s grpc.ServiceRegistrar, srv LogServiceServer) {
	s.RegisterService(&LogService_ServiceDesc, srv)
}

func unaryHandler(method string, call func(LogServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LogServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LogServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LogService_ServiceDesc is the grpc.ServiceDesc for LogService.
var LogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: LogServiceName,
	HandlerType: (*LogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSummary",
			Handler:    unaryHandler(LogService_GetSummary_FullMethodName, LogServiceServer.GetSummary),
		},
		{
			MethodName: "GetTimeline",
			Handler:    unaryHandler(LogService_GetTimeline_FullMethodName, LogServiceServer.GetTimeline),
		},
		{
			MethodName: "GetMetadata",
			Handler:    unaryHandler(LogService_GetMetadata_FullMethodName, LogServiceServer.GetMetadata),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flightreview/v1/log_service.proto",
}

// LogServiceClient is the client API for LogService.
type LogServiceClient interface {
	GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetTimeline(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetMetadata(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type logServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLogServiceClient returns a client calling LogService over cc.
func NewLogServiceClient(cc grpc.ClientConnInterface) LogServiceClient {
	return &logServiceClient{cc: cc}
}

func (c *logServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *logServiceClient) GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LogService_GetSummary_FullMethodName, in, opts)
}

func (c *logServiceClient) GetTimeline(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LogService_GetTimeline_FullMethodName, in, opts)
}

func (c *logServiceClient) GetMetadata(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LogService_GetMetadata_FullMethodName, in, opts)
}

// LogIDRequest builds a request naming logID.
func LogIDRequest(logID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{FieldLogID: structpb.NewStringValue(logID)}}
}

// TimelineRequest builds a GetTimeline request.
func TimelineRequest(logID, name string) *structpb.Struct {
	req := LogIDRequest(logID)
	req.Fields[FieldTimeline] = structpb.NewStringValue(name)
	return req
}
