// Package config loads flightreview configuration. Default() gives a
// working baseline; Load overlays a JSON or YAML file on it and FromEnv
// overlays FLIGHTREVIEW_* variables.
//
// Example:
//
//	cfg, err := config.Load("/etc/flightreview.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
