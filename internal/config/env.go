package config

import (
	"os"
	"strconv"
	"strings"
)

const envPrefix = "FLIGHTREVIEW_"

func env(name string) string { return os.Getenv(envPrefix + name) }

func envBool(name string, dst *bool) {
	if v := env(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envString(name string, dst *string) {
	if v := env(name); v != "" {
		*dst = v
	}
}

// FromEnv overlays FLIGHTREVIEW_* environment variables onto cfg.
// FLIGHTREVIEW_TOPICS is a comma-separated list; "*" clears the allow-list.
func FromEnv(cfg *Config) {
	envString("LOG_DIR", &cfg.LogDir)
	envString("METADATA_BACKEND", &cfg.Metadata.Backend)
	envString("METADATA_PATH", &cfg.Metadata.Path)
	envBool("METADATA_READ_ONLY", &cfg.Metadata.ReadOnly)
	envString("ID_PATTERN", &cfg.IDPattern)
	envBool("STRICT", &cfg.Strict)
	envString("ZERO_TIMESTAMP_POLICY", &cfg.ZeroTimestampPolicy)
	envBool("DERIVE_ATTITUDE", &cfg.DeriveAttitude)
	envString("HTTP_ADDR", &cfg.Server.HTTPAddr)
	envString("GRPC_ADDR", &cfg.Server.GRPCAddr)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)
	if v := env("DIAGNOSTICS_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DiagnosticsLimit = n
		}
	}
	if v := env("TOPICS"); v != "" {
		cfg.Topics = nil
		if strings.TrimSpace(v) == "*" {
			return
		}
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Topics = append(cfg.Topics, p)
			}
		}
	}
}
