package plans

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fdg312/macro-coach/internal/storage"
)

// Handler содержит HTTP обработчики для планов
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGenerate обрабатывает POST /v1/users/{user_id}/plans. Пустое тело: план на завтра.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}

	plan, err := h.service.Generate(r.Context(), r.PathValue("user_id"), strings.TrimSpace(req.Date), req.ExcludedIngredients)
	if err != nil {
		h.sendServiceError(w, err, "Failed to generate plan")
		return
	}

	h.sendJSON(w, http.StatusCreated, ToDTO(*plan))
}

// HandleList обрабатывает GET /v1/users/{user_id}/plans?limit=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			h.sendError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = v
	}

	list, err := h.service.List(r.Context(), r.PathValue("user_id"), limit)
	if err != nil {
		h.sendServiceError(w, err, "Failed to list plans")
		return
	}

	resp := PlansResponse{Plans: make([]PlanDTO, 0, len(list))}
	for _, p := range list {
		resp.Plans = append(resp.Plans, ToDTO(p))
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// HandleGet обрабатывает GET /v1/users/{user_id}/plans/{date}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.Get(r.Context(), r.PathValue("user_id"), r.PathValue("date"))
	if err != nil {
		h.sendServiceError(w, err, "Failed to get plan")
		return
	}
	h.sendJSON(w, http.StatusOK, ToDTO(*plan))
}

// HandleSwap обрабатывает POST /v1/users/{user_id}/plans/{date}/swap
func (h *Handler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	var req SwapMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.MealID) == "" {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "meal_id is required")
		return
	}

	plan, meal, err := h.service.SwapMeal(r.Context(), r.PathValue("user_id"), r.PathValue("date"), strings.TrimSpace(req.MealID))
	if err != nil {
		h.sendServiceError(w, err, "Failed to swap meal")
		return
	}

	h.sendJSON(w, http.StatusOK, SwapMealResponse{
		OldMealID: req.MealID,
		Meal:      *meal,
		Plan:      ToDTO(*plan),
	})
}

func (h *Handler) sendServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidUserID):
		h.sendError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrProfileNotFound):
		h.sendError(w, http.StatusNotFound, "profile_not_found", "Profile not found")
	case errors.Is(err, ErrPlanNotFound):
		h.sendError(w, http.StatusNotFound, "plan_not_found", "Plan not found")
	case errors.Is(err, ErrMealNotFound):
		h.sendError(w, http.StatusNotFound, "meal_not_found", "Meal not found")
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
