package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mhutter/taskmill/internal/engine"
)

// WorkerStatus describes one worker slot in the pool.
type WorkerStatus struct {
	Ordinal int    `json:"ordinal"`
	UUID    string `json:"uuid"`
	Enabled bool   `json:"enabled"`
}

// setEnabledRequest is the body of PUT /workers/{ordinal}/enabled.
type setEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// AdminHandler serves the operational endpoints.
type AdminHandler struct {
	pool       *engine.Pool
	enablement *engine.Enablement
	logger     *slog.Logger
}

// NewAdminHandler creates the handler for the admin surface.
func NewAdminHandler(pool *engine.Pool, enablement *engine.Enablement, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		pool:       pool,
		enablement: enablement,
		logger:     logger.With("component", "admin_api"),
	}
}

// Router builds the chi router for the admin surface. The gatherer backs
// /metrics; pass prometheus.DefaultGatherer in production.
func (h *AdminHandler) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/workers", h.listWorkers)
	r.Put("/workers/{ordinal}/enabled", h.setWorkerEnabled)

	return r
}

func (h *AdminHandler) healthz(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) listWorkers(w http.ResponseWriter, r *http.Request) {
	identities := h.pool.Workers()
	statuses := make([]WorkerStatus, len(identities))
	for i, id := range identities {
		statuses[i] = WorkerStatus{
			Ordinal: id.Ordinal,
			UUID:    id.UUID,
			Enabled: h.enablement.IsEnabled(id),
		}
	}
	respondWithJSON(w, http.StatusOK, statuses)
}

func (h *AdminHandler) setWorkerEnabled(w http.ResponseWriter, r *http.Request) {
	ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
	if err != nil || ordinal < 0 {
		respondWithError(w, http.StatusBadRequest, "ordinal must be a non-negative integer")
		return
	}
	if ordinal >= len(h.pool.Workers()) {
		respondWithError(w, http.StatusNotFound, "no worker with that ordinal")
		return
	}

	var req setEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		respondWithError(w, http.StatusBadRequest, "body must be {\"enabled\": true|false}")
		return
	}

	h.enablement.SetEnabled(ordinal, *req.Enabled)
	h.logger.Info("worker enablement changed",
		"worker_ordinal", ordinal,
		"enabled", *req.Enabled)

	respondWithJSON(w, http.StatusOK, WorkerStatus{
		Ordinal: ordinal,
		UUID:    h.pool.Workers()[ordinal].UUID,
		Enabled: *req.Enabled,
	})
}

// respondWithJSON writes a JSON response with the given status code and data.
func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondWithError writes a JSON error response.
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
