package meals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/storage"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIGenerator запрашивает рецепт на каждый слот; пищевая ценность
// пересчитывается по Pantry. Любая ошибка слота: блюдо из шаблонов.
type OpenAIGenerator struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	baseURL     string
	httpClient  *http.Client
	fallback    *MockGenerator
	logger      Logger
}

func NewOpenAIGenerator(cfg *config.Config, logger Logger) *OpenAIGenerator {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 20
	}

	return &OpenAIGenerator{
		apiKey:      cfg.OpenAIAPIKey,
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.AIMaxOutputTokens,
		temperature: cfg.AITemperature,
		baseURL:     defaultOpenAIBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		fallback: NewMockGenerator(),
		logger:   logger,
	}
}

// WithBaseURL направляет запросы на другой endpoint (прокси, тесты).
func (g *OpenAIGenerator) WithBaseURL(baseURL string) *OpenAIGenerator {
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *OpenAIGenerator) GenerateMeals(ctx context.Context, plan storage.DailyPlan, profile storage.UserProfile, excluded []string) ([]storage.Meal, error) {
	blocked := BlockedIngredients(profile, excluded)
	result := make([]storage.Meal, 0, len(Slots))

	for _, slot := range Slots {
		target := SlotTarget(plan, slot)
		meal, err := g.generateSingle(ctx, target, plan.Date, profile, blocked)
		if err != nil {
			logf(g.logger, "WARN meals: openai %s failed, using template: %v", slot.MealType, err)
			fallback, ok := g.fallback.mealFor(target, plan.Date, blocked, "")
			if !ok {
				continue
			}
			meal = fallback
		}
		result = append(result, meal)
	}
	return result, nil
}

func (g *OpenAIGenerator) SwapMeal(ctx context.Context, mealID string, plan storage.DailyPlan, profile storage.UserProfile) (*storage.Meal, error) {
	old, _ := FindMeal(plan, mealID)
	if old == nil {
		return nil, ErrMealNotFound
	}

	blocked := BlockedIngredients(profile, nil)
	meal, err := g.generateSingle(ctx, targetOf(*old), plan.Date, profile, blocked)
	if err != nil {
		logf(g.logger, "WARN meals: openai swap failed, using template: %v", err)
		return g.fallback.SwapMeal(ctx, mealID, plan, profile)
	}
	return &meal, nil
}

func (g *OpenAIGenerator) generateSingle(ctx context.Context, target Target, date string, profile storage.UserProfile, blocked map[string]bool) (storage.Meal, error) {
	payload := chatCompletionsRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages: []chatMessageRequest{
			{Role: "system", Content: systemPrompt(target, profile, blocked)},
			{Role: "user", Content: target.MealType + " için tarif öner"},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return storage.Meal{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return storage.Meal{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return storage.Meal{}, err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return storage.Meal{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return storage.Meal{}, fmt.Errorf("openai request failed with status %d", resp.StatusCode)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return storage.Meal{}, err
	}
	if len(parsed.Choices) == 0 {
		return storage.Meal{}, fmt.Errorf("openai response does not contain choices")
	}

	var draft mealDraft
	if err := json.Unmarshal([]byte(strings.TrimSpace(parsed.Choices[0].Message.Content)), &draft); err != nil {
		return storage.Meal{}, fmt.Errorf("decode meal json: %w", err)
	}
	if strings.TrimSpace(draft.Name) == "" || len(draft.Ingredients) == 0 {
		return storage.Meal{}, fmt.Errorf("meal draft is incomplete")
	}
	if usesBlocked(draft.Ingredients, blocked) {
		return storage.Meal{}, fmt.Errorf("meal draft uses excluded ingredient")
	}

	nutrition := CalculateMealNutrition(draft.Ingredients)
	if nutrition.Kcal == 0 {
		return storage.Meal{}, fmt.Errorf("meal draft has no known ingredients")
	}

	tags := draft.Tags
	if len(tags) == 0 {
		tags = []string{"turkish"}
	}

	return storage.Meal{
		MealID:          NewMealID(target.MealType, date),
		Name:            strings.TrimSpace(draft.Name),
		MealType:        target.MealType,
		Kcal:            nutrition.Kcal,
		ProteinG:        nutrition.ProteinG,
		CarbsG:          nutrition.CarbsG,
		FatG:            nutrition.FatG,
		Ingredients:     draft.Ingredients,
		Instructions:    draft.Instructions,
		PrepTimeMinutes: draft.PrepTimeMinutes,
		CookTimeMinutes: draft.CookTimeMinutes,
		Servings:        1,
		Tags:            tags,
		Difficulty:      "easy",
	}, nil
}

func systemPrompt(target Target, profile storage.UserProfile, blocked map[string]bool) string {
	available := make([]string, 0, len(Pantry))
	for name := range Pantry {
		if !blocked[name] {
			available = append(available, name)
		}
	}

	return fmt.Sprintf(
		"Sen Türk mutfağında uzman bir beslenme koçusun. Kullanıcı için %s önerisi hazırla. "+
			"Hedef: %d kcal, protein %.1fg, karbonhidrat %.1fg, yağ %.1fg. "+
			"Diyet kısıtlamaları: %s. Alerjiler: %s. Türk mutfağı tercihi: %t. "+
			"Sadece şu malzemeleri kullan: %s. Miktarları gram (g) olarak ver. "+
			"Yanıtı yalnızca JSON object olarak ver: "+
			"{\"name\":\"...\",\"ingredients\":[{\"name\":\"...\",\"amount\":100,\"unit\":\"g\"}],"+
			"\"instructions\":[\"...\"],\"prep_time_minutes\":10,\"cook_time_minutes\":20,\"tags\":[\"turkish\"]}",
		target.MealType,
		target.Kcal, target.ProteinG, target.CarbsG, target.FatG,
		orNone(profile.DietaryRestrictions), orNone(profile.Allergies), profile.PreferTurkishCuisine,
		strings.Join(available, ", "),
	)
}

func orNone(tags []string) string {
	if len(tags) == 0 {
		return "Yok"
	}
	return strings.Join(tags, ", ")
}

type mealDraft struct {
	Name            string               `json:"name"`
	Ingredients     []storage.Ingredient `json:"ingredients"`
	Instructions    []string             `json:"instructions"`
	PrepTimeMinutes int                  `json:"prep_time_minutes"`
	CookTimeMinutes int                  `json:"cook_time_minutes"`
	Tags            []string             `json:"tags"`
}

type chatCompletionsRequest struct {
	Model          string               `json:"model"`
	Messages       []chatMessageRequest `json:"messages"`
	Temperature    float64              `json:"temperature"`
	MaxTokens      int                  `json:"max_tokens"`
	ResponseFormat *responseFormat      `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
