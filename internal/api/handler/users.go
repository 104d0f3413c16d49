package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/safecheck/internal/api/respond"
	"github.com/albapepper/safecheck/internal/liveness"
	"github.com/albapepper/safecheck/internal/models"
	"github.com/albapepper/safecheck/internal/store"
)

// --------------------------------------------------------------------------
// Request / response shapes
// --------------------------------------------------------------------------

// RegisterUserRequest registers a device.
type RegisterUserRequest struct {
	DeviceID    string `json:"device_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AddContactRequest adds an emergency contact.
type AddContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StatusResponse is the liveness view shown to the checking-in user.
type StatusResponse struct {
	UserID         string          `json:"user_id"`
	Status         liveness.Status `json:"status"`
	LastCheckIn    *time.Time      `json:"last_check_in"`
	ElapsedDays    *float64        `json:"elapsed_days"` // null when never checked in
	CheckedInToday bool            `json:"checked_in_today"`
	// Seconds until the user reaches danger; 0 once there.
	TimeRemainingSeconds int64 `json:"time_remaining_seconds"`
	ContactCount         int   `json:"contact_count"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, DeviceID: u.DeviceID, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// RegisterUser creates or returns the user for a device.
// @Summary Register a device
// @Description Creates the user for device_id, or returns the existing one. A non-empty display_name updates the stored name.
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterUserRequest true "Device registration"
// @Success 200 {object} UserResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /users [post]
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := respond.DecodeJSON(w, r, &req, false); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err.Error())
		return
	}
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.DeviceID == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_DEVICE_ID", "device_id is required")
		return
	}

	u, err := h.store.RegisterUser(r.Context(), req.DeviceID, strings.TrimSpace(req.DisplayName))
	if err != nil {
		h.internalError(w, "register user", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, userResponse(u))
}

// CheckIn records a liveness confirmation at the server's current time.
// @Summary Check in
// @Description Records a check-in for the user at the current server time.
// @Tags users
// @Produce json
// @Param userID path string true "User ID"
// @Success 201 {object} models.CheckIn
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{userID}/check-ins [post]
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	c, err := h.store.RecordCheckIn(r.Context(), userID, h.now().UTC())
	if err != nil {
		h.storeError(w, "record check-in", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, c)
}

// GetStatus returns the user's liveness status.
// @Summary Liveness status
// @Description Returns safe, warning or danger with elapsed time since the last check-in.
// @Tags users
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{userID}/status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.LoadUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.storeError(w, "load user", err)
		return
	}

	report := liveness.Evaluate(u, h.now().UTC())
	resp := StatusResponse{
		UserID:               u.ID,
		Status:               report.Status,
		CheckedInToday:       report.CheckedInToday,
		TimeRemainingSeconds: int64(report.TimeRemaining / time.Second),
		ContactCount:         len(u.Contacts),
	}
	if report.LastCheckIn != nil {
		at := report.LastCheckIn.CheckedInAt
		days := report.ElapsedDays
		resp.LastCheckIn = &at
		resp.ElapsedDays = &days
	}
	respond.WriteJSONObject(w, http.StatusOK, resp)
}

// ListContacts returns the user's emergency contacts.
// @Summary List emergency contacts
// @Tags contacts
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {array} models.EmergencyContact
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{userID}/contacts [get]
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.LoadUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.storeError(w, "load user", err)
		return
	}
	contacts := u.Contacts
	if contacts == nil {
		contacts = []models.EmergencyContact{}
	}
	respond.WriteJSONObject(w, http.StatusOK, contacts)
}

// AddContact adds an emergency contact.
// @Summary Add an emergency contact
// @Description The email must contain '@'; deliverability is not checked.
// @Tags contacts
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param request body AddContactRequest true "Contact"
// @Success 201 {object} models.EmergencyContact
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{userID}/contacts [post]
func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	var req AddContactRequest
	if err := respond.DecodeJSON(w, r, &req, false); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err.Error())
		return
	}
	if _, _, err := models.ValidateContact(req.Name, req.Email); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_CONTACT", err.Error())
		return
	}

	c, err := h.store.AddContact(r.Context(), chi.URLParam(r, "userID"), req.Name, req.Email)
	if err != nil {
		h.storeError(w, "add contact", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, c)
}

// DeleteContact removes an emergency contact. Past notification log entries
// are kept.
// @Summary Remove an emergency contact
// @Tags contacts
// @Param userID path string true "User ID"
// @Param contactID path string true "Contact ID"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{userID}/contacts/{contactID} [delete]
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	err := h.store.RemoveContact(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "contactID"))
	if err != nil {
		h.storeError(w, "remove contact", err)
		return
	}
	respond.WriteNoContent(w)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (h *Handler) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "User or contact not found")
		return
	}
	h.internalError(w, op, err)
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("Store operation failed", "op", op, "error", err)
	respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
}
