// Package runtime wires configuration, the metadata store and the load
// pipeline into a single instance shared by the servers and the CLI.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	// Decode a stored log, derive its timelines and merge metadata.
//	b, err := rt.Review(ctx, "3f2c9a")
//	if err != nil {
//	    return err
//	}
//	_ = b.Timelines["flight_mode"]
package runtime
