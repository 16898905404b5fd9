package controllers

import (
	"net/http"

	"github.com/rzbill/flightreview/internal/runtime"
)

// GeneralController handles endpoints that are not tied to a single log.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers general routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Health checks (/v1/healthz)
// - Effective configuration (/v1/config)
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/healthz", c.handleHealth)
	mux.HandleFunc("GET /v1/config", c.handleConfig)
}

// handleHealth returns the health status of the service.
//
// Returns 200 OK with {"status": "ok"} if healthy, 503 Service Unavailable otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not_serving"}` + "\n"))
		return
	}
	writeEncoded(w, r, map[string]string{"status": "ok"})
}

// handleConfig returns the pipeline settings the server decodes logs with.
func (c *GeneralController) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := c.rt.Config()
	writeEncoded(w, r, map[string]any{
		"topics":              cfg.Topics,
		"timelines":           cfg.Timelines,
		"strict":              cfg.Strict,
		"zeroTimestampPolicy": cfg.ZeroTimestampPolicy,
		"diagnosticsLimit":    cfg.DiagnosticsLimit,
		"deriveAttitude":      cfg.DeriveAttitude,
		"metadataBackend":     cfg.Metadata.Backend,
	})
}
