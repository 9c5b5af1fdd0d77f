package meals

import (
	"strings"

	"github.com/fdg312/macro-coach/internal/config"
)

// NewGenerator выбирает генератор по MEALS_MODE. openai без ключа: mock.
func NewGenerator(cfg *config.Config, logger Logger) Generator {
	mode := strings.ToLower(strings.TrimSpace(cfg.MealsMode))
	if mode == "" {
		mode = config.MealsModeMock
	}

	switch mode {
	case config.MealsModeOpenAI:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			logf(logger, "WARN meals: MEALS_MODE=openai but OPENAI_API_KEY is empty, using mock generator")
			return NewMockGenerator()
		}
		logf(logger, "INFO meals: using openai generator (model=%s)", cfg.OpenAIModel)
		return NewOpenAIGenerator(cfg, logger)
	default:
		return NewMockGenerator()
	}
}
