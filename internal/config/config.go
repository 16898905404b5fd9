package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// LogDir holds uploaded logs as {id}.ulg, optionally compressed.
	LogDir   string   `json:"logDir" yaml:"logDir"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	// IDPattern overrides the log identifier pattern.
	IDPattern string `json:"idPattern" yaml:"idPattern"`
	// Strict makes per-record integrity errors fatal.
	Strict bool `json:"strict" yaml:"strict"`
	// ZeroTimestampPolicy is "retain" or "drop".
	ZeroTimestampPolicy string `json:"zeroTimestampPolicy" yaml:"zeroTimestampPolicy"`
	// Topics is the decode allow-list. Empty decodes every topic.
	Topics           []string   `json:"topics" yaml:"topics"`
	Timelines        []Timeline `json:"timelines" yaml:"timelines"`
	DiagnosticsLimit int        `json:"diagnosticsLimit" yaml:"diagnosticsLimit"`
	DeriveAttitude   bool       `json:"deriveAttitude" yaml:"deriveAttitude"`
	Server           Server     `json:"server" yaml:"server"`
	Log              Log        `json:"log" yaml:"log"`
}

// Metadata selects the per-log metadata backend.
type Metadata struct {
	// Backend is "sqlite", "pebble" or "none".
	Backend  string `json:"backend" yaml:"backend"`
	Path     string `json:"path" yaml:"path"`
	ReadOnly bool   `json:"readOnly" yaml:"readOnly"`
}

// Timeline names a discrete field to derive a change timeline from.
type Timeline struct {
	Name     string  `json:"name" yaml:"name"`
	Topic    string  `json:"topic" yaml:"topic"`
	Instance uint8   `json:"instance" yaml:"instance"`
	Field    string  `json:"field" yaml:"field"`
	Closed   float64 `json:"closed" yaml:"closed"`
}

// Server holds listen addresses. An empty address disables that server.
type Server struct {
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`
}

// Log configures the process logger.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultTopics is the decode allow-list used unless configured otherwise.
var DefaultTopics = []string{
	"battery_status", "distance_sensor", "estimator_status",
	"sensor_combined", "cpuload", "commander_state", "vehicle_status",
	"vehicle_gps_position", "vehicle_local_position",
	"vehicle_local_position_setpoint",
	"vehicle_global_position", "actuator_controls", "actuator_controls_0",
	"actuator_controls_1", "actuator_outputs",
	"vehicle_attitude", "vehicle_attitude_setpoint",
	"vehicle_rates_setpoint", "rc_channels", "input_rc",
	"position_setpoint_triplet", "vehicle_attitude_groundtruth",
	"vehicle_local_position_groundtruth",
}

// DefaultTimelines are the change timelines derived for every log.
var DefaultTimelines = []Timeline{
	{Name: "flight_mode", Topic: "commander_state", Field: "main_state", Closed: -1},
	{Name: "nav_state", Topic: "vehicle_status", Field: "nav_state", Closed: -1},
}

// Default returns built-in defaults.
func Default() Config {
	dir := DefaultDataDir()
	return Config{
		LogDir: filepath.Join(dir, "logs"),
		Metadata: Metadata{
			Backend: "sqlite",
			Path:    filepath.Join(dir, "logs.sqlite"),
		},
		ZeroTimestampPolicy: "retain",
		Topics:              append([]string(nil), DefaultTopics...),
		Timelines:           append([]Timeline(nil), DefaultTimelines...),
		DiagnosticsLimit:    1000,
		DeriveAttitude:      true,
		Server: Server{
			HTTPAddr: ":5006",
			GRPCAddr: ":5007",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top
// of Default. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	switch strings.ToLower(c.Metadata.Backend) {
	case "", "none":
	case "sqlite", "pebble":
		if c.Metadata.Path == "" {
			return errors.New("metadata.path is required for backend " + c.Metadata.Backend)
		}
	default:
		return fmt.Errorf("unknown metadata.backend %q", c.Metadata.Backend)
	}
	switch strings.ToLower(c.ZeroTimestampPolicy) {
	case "", "retain", "keep", "drop":
	default:
		return fmt.Errorf("unknown zeroTimestampPolicy %q", c.ZeroTimestampPolicy)
	}
	if c.IDPattern != "" {
		if _, err := regexp.Compile(c.IDPattern); err != nil {
			return fmt.Errorf("idPattern: %w", err)
		}
	}
	seen := make(map[string]bool, len(c.Timelines))
	for _, tl := range c.Timelines {
		if tl.Name == "" || tl.Topic == "" || tl.Field == "" {
			return fmt.Errorf("timeline %q: name, topic and field are required", tl.Name)
		}
		if seen[tl.Name] {
			return fmt.Errorf("timeline %q defined twice", tl.Name)
		}
		seen[tl.Name] = true
	}
	if c.DiagnosticsLimit < 0 {
		return errors.New("diagnosticsLimit must not be negative")
	}
	return nil
}
