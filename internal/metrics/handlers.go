package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

// Handler содержит HTTP обработчики для метрик
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleCreate обрабатывает POST /v1/users/{user_id}/metrics.
// Тело: одна метрика или {"metrics":[...]}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	var body CreateMetricsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}

	var (
		created []MetricDTO
		err     error
	)
	if body.Metrics != nil {
		created, err = h.service.StoreBatch(r.Context(), userID, body.Metrics)
	} else {
		var one *MetricDTO
		one, err = h.service.Store(r.Context(), userID, body.CreateMetricRequest)
		if one != nil {
			created = []MetricDTO{*one}
		}
	}
	if err != nil {
		h.sendServiceError(w, err, "Failed to store metrics")
		return
	}

	h.sendJSON(w, http.StatusCreated, CreateMetricsResponse{
		Status:   "ok",
		Inserted: len(created),
		Metrics:  created,
	})
}

// HandleList обрабатывает GET /v1/users/{user_id}/metrics?start=&end=&limit=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	q := r.URL.Query()

	start, err := parseTimeParam(q.Get("start"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "start must be RFC3339")
		return
	}
	end, err := parseTimeParam(q.Get("end"))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "end must be RFC3339")
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.sendError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
	}

	rows, err := h.service.Query(r.Context(), userID, start, end, limit)
	if err != nil {
		h.sendServiceError(w, err, "Failed to list metrics")
		return
	}

	resp := MetricsResponse{Metrics: make([]MetricDTO, 0, len(rows))}
	for _, m := range rows {
		resp.Metrics = append(resp.Metrics, ToDTO(m))
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// HandleSummary обрабатывает GET /v1/users/{user_id}/summary?date=YYYY-MM-DD
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.DailySummary(r.Context(), r.PathValue("user_id"), r.URL.Query().Get("date"))
	if err != nil {
		h.sendServiceError(w, err, "Failed to build summary")
		return
	}
	h.sendJSON(w, http.StatusOK, summary)
}

// HandleProgress обрабатывает GET /v1/users/{user_id}/progress?days=7
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "invalid_request", "days must be an integer")
			return
		}
		days = v
	}

	report, err := h.service.Progress(r.Context(), r.PathValue("user_id"), days)
	if err != nil {
		h.sendServiceError(w, err, "Failed to analyze progress")
		return
	}
	h.sendJSON(w, http.StatusOK, report)
}

func (h *Handler) sendServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidUserID),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrInvalidMetric),
		errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrBatchTooLarge),
		errors.Is(err, ErrInvalidDays):
		h.sendError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, storage.ErrNotInitialized):
		h.sendError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not initialized")
	default:
		h.sendError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
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
