package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/albapepper/safecheck/internal/api/respond"
	"github.com/albapepper/safecheck/internal/notifications"
)

// InactivityCheckRequest is the optional body of a job trigger.
type InactivityCheckRequest struct {
	Now            *time.Time `json:"now,omitempty"` // dry runs only
	DryRun         bool       `json:"dry_run"`
	Workers        int        `json:"workers,omitempty"`
	TimeoutSeconds int        `json:"timeout_seconds,omitempty"`
}

// RunInactivityCheck triggers one inactivity check and returns its summary.
// @Summary Run the inactivity check
// @Description Scans all users and emails emergency contacts of users inactive for 48 hours or more, at most once per contact per 24 hours. Requires the JOB_TRIGGER_TOKEN bearer token.
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body InactivityCheckRequest false "Run options"
// @Success 200 {object} notifications.Summary
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Security BearerAuth
// @Router /jobs/inactivity-check [post]
func (h *Handler) RunInactivityCheck(w http.ResponseWriter, r *http.Request) {
	var req InactivityCheckRequest
	if err := respond.DecodeJSON(w, r, &req, true); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err.Error())
		return
	}
	if req.Workers < 0 || req.TimeoutSeconds < 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_OPTIONS", "workers and timeout_seconds must be >= 0")
		return
	}
	// A real run records sent_at = now, so only dry runs may move the clock.
	if req.Now != nil && !req.DryRun {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_OPTIONS", "now is only accepted with dry_run")
		return
	}

	opts := notifications.Options{
		DryRun:  req.DryRun,
		Workers: req.Workers,
		Timeout: time.Duration(req.TimeoutSeconds) * time.Second,
	}
	if req.Now != nil {
		opts.Now = *req.Now
	}

	sum, err := h.runner.Run(r.Context(), opts)
	if err != nil {
		var cfgErr *notifications.ConfigurationError
		if errors.As(err, &cfgErr) {
			respond.WriteErrorDetail(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Inactivity check is not configured", cfgErr.Reason)
			return
		}
		h.logger.Error("Inactivity check failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "RUN_FAILED", "Inactivity check failed")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":  sum.Status(),
		"summary": sum,
	})
}
