// Package api exposes the operational HTTP surface: liveness, watcher
// status, config reload and Prometheus metrics. It is optional; the
// engine runs fine without it.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/powerwordtree/dynwatch/internal/config"
	"github.com/powerwordtree/dynwatch/internal/engine"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	sched  *engine.Scheduler
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(sched *engine.Scheduler, loader *config.Loader) http.Handler {
	h := &Handler{sched: sched, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/status", h.status)
	h.mux.HandleFunc("POST /v1/reload", h.reload)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return h.mux
}

// GET /v1/status — snapshot of every scheduled watcher.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"watchers": h.sched.Snapshot(),
	})
}

// POST /v1/reload — re-read the config from disk. The loader's change
// callbacks validate the new config and swap the watcher set.
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg); err != nil {
		// The change callback skipped the swap; surface why.
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":  true,
		"scheduled": len(h.sched.Snapshot()),
		"defined":   len(cfg.Watchers),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
