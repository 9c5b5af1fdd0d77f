package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/cache"
	"github.com/fdg312/macro-coach/internal/meals"
	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/storage"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrMealNotFound    = errors.New("meal not found")
	ErrInvalidDate     = errors.New("invalid date format")
	ErrInvalidUserID   = errors.New("user_id is required")
)

const (
	defaultHistoryDays  = 14
	defaultHistoryLimit = 50
	defaultListLimit    = 30
)

type Logger interface {
	Printf(format string, args ...any)
}

// Options: окно истории, которое видит планировщик
type Options struct {
	HistoryDays  int
	HistoryLimit int
}

// Service связывает движок планирования, генератор блюд, хранилище и кэш
type Service struct {
	storage   storage.Storage
	metrics   *metrics.Service
	engine    *planner.Engine
	generator meals.Generator
	cache     cache.PlanCache
	opts      Options
	logger    Logger
}

// NewService создаёт новый сервис. cache и logger могут быть nil.
func NewService(st storage.Storage, metricsService *metrics.Service, engine *planner.Engine, generator meals.Generator, planCache cache.PlanCache, opts Options, logger Logger) *Service {
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = defaultHistoryDays
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if generator == nil {
		generator = meals.NewMockGenerator()
	}
	return &Service{
		storage:   st,
		metrics:   metricsService,
		engine:    engine,
		generator: generator,
		cache:     planCache,
		opts:      opts,
		logger:    logger,
	}
}

// Generate считает план на дату (пусто: завтра), прикладывает блюда и сохраняет.
// Повторная генерация на ту же дату заменяет прежний план.
func (s *Service) Generate(ctx context.Context, userID, date string, excluded []string) (*storage.DailyPlan, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}

	profile, err := s.storage.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	recent, err := s.metrics.Recent(ctx, userID, s.opts.HistoryDays, s.opts.HistoryLimit)
	if err != nil {
		return nil, err
	}

	plan := s.engine.GenerateDailyPlan(userID, *profile, recent, date)

	suggested, err := s.generator.GenerateMeals(ctx, plan, *profile, excluded)
	if err != nil {
		s.logf("WARN plans: meal generation failed for %s %s: %v", userID, plan.Date, err)
	} else {
		plan.SuggestedMeals = suggested
	}

	if err := s.storage.UpsertPlan(ctx, &plan); err != nil {
		return nil, fmt.Errorf("upsert plan: %w", err)
	}
	s.cachePlan(ctx, &plan)

	s.logf("INFO plans: generated plan user=%s date=%s target=%d kcal meals=%d", userID, plan.Date, plan.TargetKcal, len(plan.SuggestedMeals))
	return &plan, nil
}

// Get возвращает сохранённый план: кэш, затем хранилище.
func (s *Service) Get(ctx context.Context, userID, date string) (*storage.DailyPlan, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}
	if date == "" {
		return nil, ErrInvalidDate
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}

	if s.cache != nil {
		plan, ok, err := s.cache.GetPlan(ctx, userID, date)
		if err != nil {
			s.logf("WARN cache: get plan %s %s: %v", userID, date, err)
		} else if ok {
			return plan, nil
		}
	}

	plan, err := s.storage.GetPlan(ctx, userID, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	s.cachePlan(ctx, plan)
	return plan, nil
}

// List возвращает последние планы пользователя, новые даты первыми.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]storage.DailyPlan, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.storage.ListPlans(ctx, userID, limit)
}

// SwapMeal заменяет блюдо в сохранённом плане на альтернативу с теми же целями.
func (s *Service) SwapMeal(ctx context.Context, userID, date, mealID string) (*storage.DailyPlan, *storage.Meal, error) {
	plan, err := s.Get(ctx, userID, date)
	if err != nil {
		return nil, nil, err
	}

	old, idx := meals.FindMeal(*plan, mealID)
	if old == nil {
		return nil, nil, ErrMealNotFound
	}

	profile, err := s.storage.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrProfileNotFound
		}
		return nil, nil, err
	}

	replacement, err := s.generator.SwapMeal(ctx, mealID, *plan, *profile)
	if err != nil {
		if errors.Is(err, meals.ErrMealNotFound) {
			return nil, nil, ErrMealNotFound
		}
		return nil, nil, err
	}

	updated := append([]storage.Meal(nil), plan.SuggestedMeals...)
	updated[idx] = *replacement
	plan.SuggestedMeals = updated

	if err := s.storage.UpsertPlan(ctx, plan); err != nil {
		return nil, nil, fmt.Errorf("upsert plan: %w", err)
	}
	s.cachePlan(ctx, plan)

	return plan, replacement, nil
}

func (s *Service) cachePlan(ctx context.Context, plan *storage.DailyPlan) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPlan(ctx, plan); err != nil {
		s.logf("WARN cache: set plan %s %s: %v", plan.UserID, plan.Date, err)
	}
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func validateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(planner.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}
	return nil
}
