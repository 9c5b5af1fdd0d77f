package status

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/macro-coach/internal/storage"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet обрабатывает GET /v1/status/{user_id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.UserStatus(r.Context(), r.PathValue("user_id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidUserID):
			h.sendError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, storage.ErrNotInitialized):
			h.sendError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not initialized")
		default:
			h.sendError(w, http.StatusInternalServerError, "internal_error", "Failed to get status")
		}
		return
	}

	h.sendJSON(w, http.StatusOK, status)
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
