package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/fdg312/macro-coach/internal/userctx"
)

var errForbiddenUser = errors.New("user_id does not match token subject")

type Handler struct {
	service        *Service
	allowedOrigins []string
}

func NewHandler(service *Service, allowedOrigins []string) *Handler {
	return &Handler{service: service, allowedOrigins: allowedOrigins}
}

// HandleSendMessage обрабатывает POST /v1/chat
func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	userID, err := resolveUserID(r, req.UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	reply, err := h.service.HandleMessage(r.Context(), userID, req.Message)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// HandleListMessages обрабатывает GET /v1/users/{user_id}/chat/messages?limit=
func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
			return
		}
		limit = parsed
	}

	rows, err := h.service.ListMessages(r.Context(), r.PathValue("user_id"), limit)
	if err != nil {
		h.handleError(w, err)
		return
	}

	resp := ListMessagesResponse{Messages: make([]ChatMessageDTO, 0, len(rows))}
	for _, row := range rows {
		resp.Messages = append(resp.Messages, messageToDTO(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id and message are required")
	case errors.Is(err, errForbiddenUser):
		writeError(w, http.StatusForbidden, "forbidden", "Forbidden")
	case errors.Is(err, storage.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not initialized")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// resolveUserID: при наличии токена его subject главнее тела запроса.
func resolveUserID(r *http.Request, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	subject, ok := userctx.GetUserID(r.Context())
	if !ok {
		if requested == "" {
			return "", ErrInvalidRequest
		}
		return requested, nil
	}
	if requested != "" && requested != subject {
		return "", errForbiddenUser
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
