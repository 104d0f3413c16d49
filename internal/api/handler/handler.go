// Package handler provides HTTP handlers for all API endpoints.
// Handlers call the store and the job runner directly; there is no service
// layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/safecheck/internal/api/respond"
	"github.com/albapepper/safecheck/internal/notifications"
	"github.com/albapepper/safecheck/internal/store"
)

// JobRunner runs one inactivity check.
type JobRunner interface {
	Run(ctx context.Context, opts notifications.Options) (*notifications.Summary, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  store.Store
	runner JobRunner
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Handler with shared dependencies.
func New(s store.Store, runner JobRunner, logger *slog.Logger) *Handler {
	return &Handler{
		store:  s,
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Safecheck API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"inactivity": map[string]interface{}{
			"threshold_hours":    notifications.InactivityThreshold.Hours(),
			"dedup_window_hours": notifications.DedupWindow.Hours(),
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies store connectivity.
// @Summary Database health check
// @Description Verifies the configured store is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("Store health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
