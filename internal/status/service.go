// Package status assembles the "how am I doing today" view of a user.
package status

import (
	"context"
	"errors"
	"strings"

	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/plans"
	"github.com/fdg312/macro-coach/internal/profiles"
	"github.com/fdg312/macro-coach/internal/progress"
	"github.com/fdg312/macro-coach/internal/storage"
)

var ErrInvalidUserID = errors.New("user_id is required")

const (
	defaultWindowDays = 7
	recentLimit       = 50
)

// Remaining: сколько осталось до плана на сегодня. Отрицательное значение: перебор.
type Remaining struct {
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// UserStatus: ответ GET /v1/status/{user_id}
type UserStatus struct {
	UserID             string               `json:"user_id"`
	Date               string               `json:"date"`
	DailySummary       metrics.DailySummary `json:"daily_summary"`
	Profile            *profiles.ProfileDTO `json:"profile"`
	RecentMetricsCount int                  `json:"recent_metrics_count"`
	Progress           *progress.Report     `json:"progress,omitempty"`
	Plan               *plans.PlanDTO       `json:"plan,omitempty"`
	Remaining          *Remaining           `json:"remaining,omitempty"`
}

// Service собирает статус из метрик, профиля и плана
type Service struct {
	storage    storage.Storage
	metrics    *metrics.Service
	windowDays int
}

func NewService(st storage.Storage, metricsService *metrics.Service, windowDays int) *Service {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	return &Service{storage: st, metrics: metricsService, windowDays: windowDays}
}

// UserStatus never fails for a missing profile or missing data: those are
// represented as null/absent fields. Only storage errors are returned.
func (s *Service) UserStatus(ctx context.Context, userID string) (*UserStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	today := s.metrics.Today()
	summary, err := s.metrics.DailySummary(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	result := &UserStatus{
		UserID:       userID,
		Date:         today,
		DailySummary: *summary,
	}

	profile, err := s.storage.GetProfile(ctx, userID)
	switch {
	case err == nil:
		dto := profiles.ToDTO(*profile)
		result.Profile = &dto
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, err
	}

	recent, err := s.metrics.Recent(ctx, userID, s.windowDays, recentLimit)
	if err != nil {
		return nil, err
	}
	result.RecentMetricsCount = len(recent)

	if profile != nil && len(recent) > 0 {
		report := progress.Analyze(recent, s.windowDays, s.metrics.Location())
		result.Progress = &report
	}

	plan, err := s.storage.GetPlan(ctx, userID, today)
	switch {
	case err == nil:
		dto := plans.ToDTO(*plan)
		result.Plan = &dto
		result.Remaining = remaining(*plan, *summary)
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, err
	}

	return result, nil
}

func remaining(plan storage.DailyPlan, summary metrics.DailySummary) *Remaining {
	r := &Remaining{
		Kcal:     float64(plan.TargetKcal),
		ProteinG: plan.TargetProteinG,
		CarbsG:   plan.TargetCarbsG,
		FatG:     plan.TargetFatG,
	}
	if summary.KcalIn != nil {
		r.Kcal -= *summary.KcalIn
	}
	if summary.ProteinG != nil {
		r.ProteinG -= *summary.ProteinG
	}
	if summary.CarbsG != nil {
		r.CarbsG -= *summary.CarbsG
	}
	if summary.FatG != nil {
		r.FatG -= *summary.FatG
	}
	r.ProteinG = planner.Round1(r.ProteinG)
	r.CarbsG = planner.Round1(r.CarbsG)
	r.FatG = planner.Round1(r.FatG)
	return r
}
