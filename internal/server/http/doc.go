// Package httpserver serves decoded flight logs over HTTP. Responses are
// JSON by default and CBOR when the Accept header asks for
// application/cbor.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":5006")
package httpserver
