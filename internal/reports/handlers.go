package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/fdg312/macro-coach/internal/userctx"
)

// Handlers handles HTTP requests for reports
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleCreate handles POST /v1/users/{user_id}/reports
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}

	report, err := h.service.Create(r.Context(), r.PathValue("user_id"), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.service.ToDTO(r.Context(), report, getBaseURL(r)))
}

// HandleList handles GET /v1/users/{user_id}/reports?limit=N
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	reports, err := h.service.List(r.Context(), r.PathValue("user_id"), limit)
	if err != nil {
		h.handleError(w, err)
		return
	}

	baseURL := getBaseURL(r)
	resp := ReportsResponse{Reports: make([]ReportDTO, 0, len(reports))}
	for i := range reports {
		resp.Reports = append(resp.Reports, h.service.ToDTO(r.Context(), &reports[i], baseURL))
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDownload handles GET /v1/reports/{id}/download
// S3: редирект на presigned URL, local: отдаём байты сами.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid report id")
		return
	}

	owner, _ := userctx.GetUserID(r.Context())
	meta, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	if meta.ObjectKey != nil {
		url, err := h.service.DownloadURL(r.Context(), meta, getBaseURL(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	content, err := h.service.Content(r.Context(), meta)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to read report")
		return
	}

	filename := fmt.Sprintf("report_%s_%s.%s", meta.FromDate, meta.ToDate, meta.Format)
	w.Header().Set("Content-Type", contentType(meta.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidUserID),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, "range_too_large",
			fmt.Sprintf("Date range exceeds maximum of %d days", h.service.maxRangeDays))
	case errors.Is(err, ErrReportNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Report not found")
	case errors.Is(err, storage.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is not initialized")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
