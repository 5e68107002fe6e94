package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	started time.Time
	version string
	ready   func() bool
}

// NewHealthHandler creates the handler; ready reports whether the index
// series has been computed.
func NewHealthHandler(version string, ready func() bool) *HealthHandler {
	return &HealthHandler{started: time.Now(), version: version, ready: ready}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetHealth)
	r.Get("/ready", h.GetReady)
	return r
}

// GetHealth handles GET /healthz.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).String(),
	})
}

// GetReady handles GET /healthz/ready; 503 until the series is computed.
func (h *HealthHandler) GetReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{"status": "computing"})
		return
	}
	render.JSON(w, r, map[string]interface{}{"status": "ready"})
}
