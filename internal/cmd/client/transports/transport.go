package transports

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"
)

// LogTransport abstracts how the CLI reaches a running server.
type LogTransport interface {
	Health(ctx context.Context) (serving bool, err error)
	Summary(ctx context.Context, logID string) (*structpb.Struct, error)
	Timeline(ctx context.Context, logID, name string) (*structpb.Struct, error)
	Metadata(ctx context.Context, logID string) (*structpb.Struct, error)
}
