// Package grpcserver hosts the gRPC server for flightreview, registering
// the standard health service and flightreview.v1.LogService.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := grpcserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":5007")
package grpcserver
