package serverrun

import (
	"context"
	"os"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/flightreview/internal/config"
	grpcserver "github.com/rzbill/flightreview/internal/server/grpc"
	httpserver "github.com/rzbill/flightreview/internal/server/http"
	logpkg "github.com/rzbill/flightreview/pkg/log"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		expected string
	}{
		{
			name:     "environment variable set",
			key:      "TEST_VAR",
			def:      "default",
			envValue: "env_value",
			expected: "env_value",
		},
		{
			name:     "environment variable not set",
			key:      "TEST_VAR_NOT_SET",
			def:      "default",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			} else {
				_ = os.Unsetenv(tt.key)
			}
			if got := getenvDefault(tt.key, tt.def); got != tt.expected {
				t.Errorf("getenvDefault(%s, %s) = %s, expected %s", tt.key, tt.def, got, tt.expected)
			}
		})
	}
}

func testConfig(t *testing.T) cfgpkg.Config {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.LogDir = t.TempDir()
	cfg.Metadata.Backend = "none"
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Server.GRPCAddr = "127.0.0.1:0"
	return cfg
}

func quietLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithOutput(logpkg.NewNullOutput()))
}

func TestRunRequiresAnAddress(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server = cfgpkg.Server{}
	if err := Run(context.Background(), Options{Config: cfg, Logger: quietLogger()}); err == nil {
		t.Fatalf("expected error without listen addresses")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ZeroTimestampPolicy = "sometimes"
	if err := Run(context.Background(), Options{Config: cfg, Logger: quietLogger()}); err == nil {
		t.Fatalf("expected config error")
	}
}

// TestRunIntegration starts both servers on ephemeral ports and stops them
// through context cancellation.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	ready := false
	err := Run(ctx, Options{
		Config: testConfig(t),
		Logger: quietLogger(),
		Ready: func(h *httpserver.Server, g *grpcserver.Server) {
			ready = h != nil && g != nil
		},
	})
	if err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
	if !ready {
		t.Errorf("servers were not constructed")
	}
}
