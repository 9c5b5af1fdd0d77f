package meals

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultMaxImageBytes = 8 << 20

// Handler обслуживает распознавание блюд по фото
type Handler struct {
	recognizer Recognizer
	maxBytes   int64
}

// NewHandler: maxBytes <= 0 значит 8 MB.
func NewHandler(recognizer Recognizer, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &Handler{recognizer: recognizer, maxBytes: maxBytes}
}

// RecognizeResponse: ответ POST /v1/users/{user_id}/meals/recognize
type RecognizeResponse struct {
	UserID string `json:"user_id"`
	PlateEstimate
}

// HandleRecognize обрабатывает POST /v1/users/{user_id}/meals/recognize (multipart, поле file)
func (h *Handler) HandleRecognize(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	// запас на заголовки multipart сверх самого файла
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", h.tooLargeMessage())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "File is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to read file")
		return
	}
	if int64(len(image)) > h.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", h.tooLargeMessage())
		return
	}

	estimate, err := h.recognizer.RecognizePlate(r.Context(), image)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyImage):
			writeError(w, http.StatusBadRequest, "missing_file", "File is empty")
		case errors.Is(err, ErrUnsupportedImage):
			writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Only JPEG, PNG, WebP and GIF images are supported")
		default:
			writeError(w, http.StatusBadGateway, "recognition_failed", "Failed to recognize meal")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(RecognizeResponse{UserID: userID, PlateEstimate: *estimate})
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File exceeds maximum size of %d MB", h.maxBytes>>20)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
