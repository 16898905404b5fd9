package grpcserver

import (
	"context"
	"encoding/json"
	"errors"

	flightreviewv1 "github.com/rzbill/flightreview/internal/api/v1"
	"github.com/rzbill/flightreview/internal/runtime"
	"github.com/rzbill/flightreview/internal/ulog"
	"github.com/rzbill/flightreview/pkg/id"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type logSvc struct {
	flightreviewv1.UnimplementedLogServiceServer
	rt *runtime.Runtime
}

func (s *logSvc) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, err := s.rt.Review(ctx, stringField(req, flightreviewv1.FieldLogID))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(b.Document())
}

func (s *logSvc) GetTimeline(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(req, flightreviewv1.FieldTimeline)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	b, err := s.rt.Review(ctx, stringField(req, flightreviewv1.FieldLogID))
	if err != nil {
		return nil, toStatus(err)
	}
	tl, ok := b.Timelines[name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown timeline %q", name)
	}
	return toStruct(runtime.ViewTimeline(name, tl))
}

func (s *logSvc) GetMetadata(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	logID := stringField(req, flightreviewv1.FieldLogID)
	if err := s.rt.ValidateID(logID); err != nil {
		return nil, toStatus(err)
	}
	return toStruct(s.rt.Metadata(ctx, logID))
}

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[name].GetStringValue()
}

// toStruct converts v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	var (
		verr *id.ValidationError
		ferr *ulog.FormatError
		serr *ulog.SchemaMismatchError
		ierr *ulog.IntegrityError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, runtime.ErrLogNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &ferr), errors.As(err, &serr), errors.As(err, &ierr):
		return status.Error(codes.DataLoss, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
