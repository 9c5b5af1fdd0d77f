package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/progress"
	"github.com/fdg312/macro-coach/internal/storage"
)

var (
	ErrInvalidUserID  = errors.New("user_id is required")
	ErrInvalidDate    = errors.New("invalid date format")
	ErrInvalidRange   = errors.New("invalid time range")
	ErrInvalidMetric  = errors.New("invalid metric")
	ErrEmptyBatch     = errors.New("no metrics in request")
	ErrBatchTooLarge  = errors.New("too many metrics in request")
	ErrInvalidDays    = errors.New("days must be between 1 and 365")
	ErrNotInitialized = storage.ErrNotInitialized
)

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
	MaxBatchSize      = 500
	maxProgressDays   = 365
	defaultConfidence = 1.0
)

var workoutTypes = map[string]bool{
	storage.WorkoutStrength: true,
	storage.WorkoutCardio:   true,
	storage.WorkoutYoga:     true,
	storage.WorkoutWalking:  true,
	storage.WorkoutRunning:  true,
	storage.WorkoutCycling:  true,
	storage.WorkoutSwimming: true,
	storage.WorkoutOther:    true,
}

// IsValidWorkoutType проверяет тип тренировки
func IsValidWorkoutType(v string) bool {
	return workoutTypes[v]
}

// Service: хранилище метрик плюс агрегаты поверх него
type Service struct {
	storage storage.MetricsStorage
	loc     *time.Location
	now     func() time.Time
}

// NewService создаёт новый сервис. loc задаёт границы календарного дня.
func NewService(st storage.MetricsStorage, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{storage: st, loc: loc, now: time.Now}
}

// WithClock подменяет часы (для тестов)
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Location returns the timezone used for day windows.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current calendar date in the service timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// Store валидирует и добавляет одно наблюдение
func (s *Service) Store(ctx context.Context, userID string, req CreateMetricRequest) (*MetricDTO, error) {
	metric, err := buildMetric(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.storage.InsertMetric(ctx, &metric); err != nil {
		return nil, fmt.Errorf("insert metric: %w", err)
	}
	dto := ToDTO(metric)
	return &dto, nil
}

// StoreBatch добавляет пачку наблюдений: либо все, либо ни одного (валидация до записи).
func (s *Service) StoreBatch(ctx context.Context, userID string, reqs []CreateMetricRequest) ([]MetricDTO, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(reqs) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	rows := make([]storage.HealthMetric, 0, len(reqs))
	for i, req := range reqs {
		metric, err := buildMetric(userID, req)
		if err != nil {
			return nil, fmt.Errorf("metrics[%d]: %w", i, err)
		}
		rows = append(rows, metric)
	}

	if err := s.storage.InsertMetrics(ctx, rows); err != nil {
		return nil, fmt.Errorf("insert metrics: %w", err)
	}

	result := make([]MetricDTO, 0, len(rows))
	for _, m := range rows {
		result = append(result, ToDTO(m))
	}
	return result, nil
}

// Query возвращает наблюдения пользователя, новые первыми. Границы включительные.
func (s *Service) Query(ctx context.Context, userID string, start, end *time.Time, limit int) ([]storage.HealthMetric, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, ErrInvalidRange
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	rows, err := s.storage.ListMetrics(ctx, storage.MetricQuery{
		UserID: userID,
		Start:  start,
		End:    end,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	return rows, nil
}

// Recent returns up to limit metrics from the last `days` calendar days including today.
func (s *Service) Recent(ctx context.Context, userID string, days, limit int) ([]storage.HealthMetric, error) {
	if days <= 0 {
		days = progress.DefaultWindowDays
	}
	today, _, err := DayWindow(s.Today(), s.loc)
	if err != nil {
		return nil, err
	}
	start := today.AddDate(0, 0, -(days - 1))

	rows, err := s.storage.ListMetrics(ctx, storage.MetricQuery{
		UserID: userID,
		Start:  &start,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list recent metrics: %w", err)
	}
	return rows, nil
}

// DailySummary агрегирует все наблюдения за дату (YYYY-MM-DD) в часовом поясе сервиса.
func (s *Service) DailySummary(ctx context.Context, userID, date string) (*DailySummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}
	if date == "" {
		date = s.Today()
	}
	start, end, err := DayWindow(date, s.loc)
	if err != nil {
		return nil, err
	}

	rows, err := s.storage.ListMetrics(ctx, storage.MetricQuery{
		UserID: userID,
		Start:  &start,
		End:    &end,
	})
	if err != nil {
		return nil, fmt.Errorf("list day metrics: %w", err)
	}

	summary := Summarize(date, rows)
	return &summary, nil
}

// Progress анализирует окно последних days дней.
func (s *Service) Progress(ctx context.Context, userID string, days int) (*progress.Report, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}
	if days == 0 {
		days = progress.DefaultWindowDays
	}
	if days < 0 || days > maxProgressDays {
		return nil, ErrInvalidDays
	}

	rows, err := s.Recent(ctx, userID, days, 0)
	if err != nil {
		return nil, err
	}
	report := progress.Analyze(rows, days, s.loc)
	return &report, nil
}

func buildMetric(userID string, req CreateMetricRequest) (storage.HealthMetric, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.HealthMetric{}, ErrInvalidUserID
	}
	if err := validateRequest(req); err != nil {
		return storage.HealthMetric{}, err
	}

	confidence := defaultConfidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	// Postgres хранит микросекунды, а окно дня заканчивается в 23:59:59.999999:
	// более точная метка не попала бы ни в один день.
	return storage.HealthMetric{
		UserID:                 userID,
		Timestamp:              req.Timestamp.UTC().Truncate(time.Microsecond),
		KcalOut:                req.KcalOut,
		HeartRate:              req.HeartRate,
		Steps:                  req.Steps,
		SleepScore:             req.SleepScore,
		Weight:                 req.Weight,
		ProteinG:               req.ProteinG,
		CarbsG:                 req.CarbsG,
		FatG:                   req.FatG,
		KcalIn:                 req.KcalIn,
		WorkoutType:            req.WorkoutType,
		RPE:                    req.RPE,
		WorkoutDurationMinutes: req.WorkoutDurationMinutes,
		Source:                 strings.TrimSpace(req.Source),
		Confidence:             confidence,
	}, nil
}

func validateRequest(req CreateMetricRequest) error {
	if req.Timestamp == nil || req.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidMetric)
	}
	if req.SleepScore != nil && (*req.SleepScore < 0 || *req.SleepScore > 100) {
		return fmt.Errorf("%w: sleep_score must be between 0 and 100", ErrInvalidMetric)
	}
	if req.RPE != nil && (*req.RPE < 1 || *req.RPE > 10) {
		return fmt.Errorf("%w: rpe must be between 1 and 10", ErrInvalidMetric)
	}
	if req.Confidence != nil && (*req.Confidence < 0 || *req.Confidence > 1) {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidMetric)
	}
	if req.Weight != nil && *req.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrInvalidMetric)
	}
	if req.WorkoutType != nil && !IsValidWorkoutType(*req.WorkoutType) {
		return fmt.Errorf("%w: unknown workout_type %q", ErrInvalidMetric, *req.WorkoutType)
	}

	for name, v := range map[string]*float64{
		"kcal_out":  req.KcalOut,
		"kcal_in":   req.KcalIn,
		"protein_g": req.ProteinG,
		"carbs_g":   req.CarbsG,
		"fat_g":     req.FatG,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidMetric, name)
		}
	}
	for name, v := range map[string]*int{
		"steps":                    req.Steps,
		"heart_rate":               req.HeartRate,
		"workout_duration_minutes": req.WorkoutDurationMinutes,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidMetric, name)
		}
	}
	return nil
}

// ToDTO конвертирует строку хранилища в DTO
func ToDTO(m storage.HealthMetric) MetricDTO {
	return MetricDTO{
		ID:                     m.ID,
		UserID:                 m.UserID,
		Timestamp:              m.Timestamp,
		KcalOut:                m.KcalOut,
		HeartRate:              m.HeartRate,
		Steps:                  m.Steps,
		SleepScore:             m.SleepScore,
		Weight:                 m.Weight,
		ProteinG:               m.ProteinG,
		CarbsG:                 m.CarbsG,
		FatG:                   m.FatG,
		KcalIn:                 m.KcalIn,
		WorkoutType:            m.WorkoutType,
		RPE:                    m.RPE,
		WorkoutDurationMinutes: m.WorkoutDurationMinutes,
		Source:                 m.Source,
		Confidence:             m.Confidence,
		CreatedAt:              m.CreatedAt,
	}
}
