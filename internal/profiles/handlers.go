package profiles

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/macro-coach/internal/storage"
)

// Handler содержит HTTP обработчики для профилей
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet обрабатывает GET /v1/users/{user_id}/profile
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), r.PathValue("user_id"))
	if err != nil {
		h.sendServiceError(w, err, "Failed to get profile")
		return
	}

	h.sendJSON(w, http.StatusOK, profile)
}

// HandleUpsert обрабатывает PUT /v1/users/{user_id}/profile
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}

	profile, err := h.service.UpsertProfile(r.Context(), r.PathValue("user_id"), req)
	if err != nil {
		h.sendServiceError(w, err, "Failed to save profile")
		return
	}

	h.sendJSON(w, http.StatusOK, profile)
}

func (h *Handler) sendServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidProfile), errors.Is(err, ErrInvalidUserID):
		h.sendError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrNotFound):
		h.sendError(w, http.StatusNotFound, "profile_not_found", "Profile not found")
	case errors.Is(err, storage.ErrNotInitialized):
		h.sendError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not initialized")
	default:
		h.sendError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// sendJSON отправляет JSON ответ
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError отправляет ошибку в формате ErrorResponse
func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
