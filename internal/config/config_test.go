package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Metadata.Backend != "sqlite" || cfg.ZeroTimestampPolicy != "retain" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if len(cfg.Timelines) != 2 || cfg.Timelines[0].Closed != -1 {
		t.Fatalf("default timelines: %+v", cfg.Timelines)
	}
	if len(cfg.Topics) != len(DefaultTopics) {
		t.Fatalf("default topics")
	}
	cfg.Topics[0] = "changed"
	if DefaultTopics[0] == "changed" {
		t.Fatalf("Default must copy the topic list")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "flightreview.json")
	data := []byte(`{"logDir":"/data/logs","strict":true,"metadata":{"backend":"pebble","path":"/data/meta"},"topics":["cpuload"]}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogDir != "/data/logs" || !cfg.Strict || cfg.Metadata.Backend != "pebble" {
		t.Fatalf("cfg: %+v", cfg)
	}
	if len(cfg.Topics) != 1 || cfg.Topics[0] != "cpuload" {
		t.Fatalf("topics: %v", cfg.Topics)
	}
	if cfg.DiagnosticsLimit != 1000 {
		t.Fatalf("unset fields keep defaults, got %d", cfg.DiagnosticsLimit)
	}
}

func TestLoadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "flightreview.yaml")
	data := []byte(`
logDir: /data/logs
zeroTimestampPolicy: drop
timelines:
  - name: arming
    topic: vehicle_status
    field: arming_state
    closed: 0
server:
  httpAddr: 127.0.0.1:8080
`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ZeroTimestampPolicy != "drop" || cfg.Server.HTTPAddr != "127.0.0.1:8080" {
		t.Fatalf("cfg: %+v", cfg)
	}
	if len(cfg.Timelines) != 1 || cfg.Timelines[0].Field != "arming_state" {
		t.Fatalf("timelines: %+v", cfg.Timelines)
	}
	if cfg.Server.GRPCAddr != ":5007" {
		t.Fatalf("unset nested fields keep defaults, got %q", cfg.Server.GRPCAddr)
	}
}

func TestLoadBadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yml")
	os.WriteFile(file, []byte("logDir: [unterminated"), 0644)
	if _, err := Load(file); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Metadata.Backend = "mysql" }},
		{"missing path", func(c *Config) { c.Metadata.Path = "" }},
		{"policy", func(c *Config) { c.ZeroTimestampPolicy = "filter" }},
		{"pattern", func(c *Config) { c.IDPattern = "([" }},
		{"timeline", func(c *Config) { c.Timelines = append(c.Timelines, Timeline{Name: "x"}) }},
		{"duplicate timeline", func(c *Config) { c.Timelines = append(c.Timelines, c.Timelines[0]) }},
		{"diagnostics", func(c *Config) { c.DiagnosticsLimit = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("FLIGHTREVIEW_STRICT", "true")
	t.Setenv("FLIGHTREVIEW_METADATA_BACKEND", "none")
	t.Setenv("FLIGHTREVIEW_DIAGNOSTICS_LIMIT", "50")
	t.Setenv("FLIGHTREVIEW_TOPICS", "cpuload, commander_state")
	FromEnv(&cfg)
	if !cfg.Strict || cfg.Metadata.Backend != "none" || cfg.DiagnosticsLimit != 50 {
		t.Fatalf("env overlay: %+v", cfg)
	}
	if len(cfg.Topics) != 2 || cfg.Topics[1] != "commander_state" {
		t.Fatalf("topics: %v", cfg.Topics)
	}

	t.Setenv("FLIGHTREVIEW_TOPICS", "*")
	FromEnv(&cfg)
	if len(cfg.Topics) != 0 {
		t.Fatalf("* should clear the allow-list: %v", cfg.Topics)
	}
}
