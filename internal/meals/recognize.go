package meals

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/config"
)

var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// PlateEstimate: оценка пищевой ценности блюда на фото. Confidence в [0, 1],
// нулевая оценка с нулевой уверенностью значит «не распознано».
type PlateEstimate struct {
	Kcal       float64 `json:"kcal"`
	ProteinG   float64 `json:"protein_g"`
	CarbsG     float64 `json:"carbs_g"`
	FatG       float64 `json:"fat_g"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Recognizer оценивает калории и макросы по фотографии тарелки.
type Recognizer interface {
	RecognizePlate(ctx context.Context, image []byte) (*PlateEstimate, error)
}

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// DetectImageType возвращает MIME-тип по сигнатуре файла, а не по имени.
func DetectImageType(image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	mime := http.DetectContentType(image)
	if !supportedImageTypes[mime] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	return mime, nil
}

// NewRecognizer: vision-модель OpenAI при MEALS_MODE=openai и заданном ключе, иначе mock.
func NewRecognizer(cfg *config.Config, logger Logger) Recognizer {
	mode := strings.ToLower(strings.TrimSpace(cfg.MealsMode))
	if mode == config.MealsModeOpenAI && strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		logf(logger, "INFO meals: using openai plate recognizer (model=%s)", cfg.OpenAIVisionModel)
		return NewOpenAIRecognizer(cfg, logger)
	}
	return NewMockRecognizer()
}

// MockRecognizer ничего не распознаёт: проверяет формат и отдаёт пустую оценку.
type MockRecognizer struct{}

func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

func (m *MockRecognizer) RecognizePlate(ctx context.Context, image []byte) (*PlateEstimate, error) {
	if _, err := DetectImageType(image); err != nil {
		return nil, err
	}
	return &PlateEstimate{Source: "mock"}, nil
}

const platePrompt = "Estimate calories, protein_g, carbs_g and fat_g for the pictured meal. " +
	"Respond in JSON with keys kcal, protein_g, carbs_g, fat_g, confidence."

// OpenAIRecognizer отправляет фото data-URI в chat completions.
type OpenAIRecognizer struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

func NewOpenAIRecognizer(cfg *config.Config, logger Logger) *OpenAIRecognizer {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 20
	}
	model := cfg.OpenAIVisionModel
	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAIRecognizer{
		apiKey:    cfg.OpenAIAPIKey,
		model:     model,
		maxTokens: 200,
		baseURL:   defaultOpenAIBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL направляет запросы на другой endpoint (прокси, тесты).
func (r *OpenAIRecognizer) WithBaseURL(baseURL string) *OpenAIRecognizer {
	r.baseURL = strings.TrimRight(baseURL, "/")
	return r
}

// RecognizePlate: ошибка транспорта или статуса возвращается, а невалидный JSON
// в ответе модели даёт нулевую оценку.
func (r *OpenAIRecognizer) RecognizePlate(ctx context.Context, image []byte) (*PlateEstimate, error) {
	mime, err := DetectImageType(image)
	if err != nil {
		return nil, err
	}

	payload := visionRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		Messages: []visionMessage{{
			Role: "user",
			Content: []visionPart{
				{Type: "text", Text: platePrompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai vision request failed with status %d", resp.StatusCode)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai response does not contain choices")
	}

	estimate, err := parseEstimate(parsed.Choices[0].Message.Content)
	if err != nil {
		logf(r.logger, "WARN meals: plate estimate is not valid json: %v", err)
		return &PlateEstimate{Source: "openai"}, nil
	}
	return estimate, nil
}

func parseEstimate(content string) (*PlateEstimate, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var est PlateEstimate
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &est); err != nil {
		return nil, err
	}

	est.Kcal = nonNegative(est.Kcal)
	est.ProteinG = nonNegative(est.ProteinG)
	est.CarbsG = nonNegative(est.CarbsG)
	est.FatG = nonNegative(est.FatG)
	est.Confidence = min(nonNegative(est.Confidence), 1)
	est.Source = "openai"
	return &est, nil
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

type visionRequest struct {
	Model          string          `json:"model"`
	Messages       []visionMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type visionMessage struct {
	Role    string       `json:"role"`
	Content []visionPart `json:"content"`
}

type visionPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}
