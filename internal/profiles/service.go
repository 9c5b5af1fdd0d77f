package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/storage"
)

var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrNotFound       = errors.New("profile not found")
	ErrInvalidUserID  = errors.New("user_id is required")
)

// Значения по умолчанию для разбивки макросов
const (
	DefaultProteinPercent = 30.0
	DefaultCarbsPercent   = 40.0
	DefaultFatPercent     = 30.0
)

// Service содержит бизнес-логику профилей
type Service struct {
	storage storage.ProfilesStorage
}

// NewService создаёт новый сервис
func NewService(st storage.ProfilesStorage) *Service {
	return &Service{storage: st}
}

// GetProfile возвращает профиль пользователя
func (s *Service) GetProfile(ctx context.Context, userID string) (*ProfileDTO, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*profile)
	return &dto, nil
}

// Get возвращает профиль в виде строки хранилища. ErrNotFound, если профиля нет.
func (s *Service) Get(ctx context.Context, userID string) (*storage.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	profile, err := s.storage.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return profile, nil
}

// UpsertProfile полностью заменяет профиль пользователя
func (s *Service) UpsertProfile(ctx context.Context, userID string, req UpsertProfileRequest) (*ProfileDTO, error) {
	profile, err := BuildProfile(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, profile); err != nil {
		return nil, err
	}
	dto := ToDTO(*profile)
	return &dto, nil
}

// Save сохраняет уже собранный профиль (read-modify-write из чата и сидера).
func (s *Service) Save(ctx context.Context, profile *storage.UserProfile) error {
	if err := Validate(profile); err != nil {
		return err
	}
	if err := s.storage.UpsertProfile(ctx, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// BuildProfile применяет значения по умолчанию и валидирует запрос.
func BuildProfile(userID string, req UpsertProfileRequest) (*storage.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	profile := &storage.UserProfile{
		UserID:               userID,
		Age:                  req.Age,
		Gender:               strings.ToLower(strings.TrimSpace(req.Gender)),
		HeightCM:             req.HeightCM,
		ActivityLevel:        strings.ToLower(strings.TrimSpace(req.ActivityLevel)),
		Goal:                 strings.ToLower(strings.TrimSpace(req.Goal)),
		TargetWeightKG:       req.TargetWeightKG,
		TargetKcalDeficit:    req.TargetKcalDeficit,
		ProteinPercent:       valueOr(req.ProteinPercent, DefaultProteinPercent),
		CarbsPercent:         valueOr(req.CarbsPercent, DefaultCarbsPercent),
		FatPercent:           valueOr(req.FatPercent, DefaultFatPercent),
		DietaryRestrictions:  cleanTags(req.DietaryRestrictions),
		Allergies:            cleanTags(req.Allergies),
		PreferTurkishCuisine: true,
	}
	if req.PreferTurkishCuisine != nil {
		profile.PreferTurkishCuisine = *req.PreferTurkishCuisine
	}

	if err := Validate(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Validate проверяет профиль на границе: ядро получает уже валидные данные.
func Validate(p *storage.UserProfile) error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return ErrInvalidUserID
	case p.Age < 1 || p.Age > 120:
		return fmt.Errorf("%w: age must be between 1 and 120", ErrInvalidProfile)
	case !planner.IsValidGender(p.Gender):
		return fmt.Errorf("%w: gender must be male, female or other", ErrInvalidProfile)
	case p.HeightCM < 50 || p.HeightCM > 272:
		return fmt.Errorf("%w: height_cm must be between 50 and 272", ErrInvalidProfile)
	case !planner.IsValidActivityLevel(p.ActivityLevel):
		return fmt.Errorf("%w: unknown activity_level %q", ErrInvalidProfile, p.ActivityLevel)
	case !planner.IsValidGoal(p.Goal):
		return fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, p.Goal)
	case p.TargetWeightKG != nil && *p.TargetWeightKG <= 0:
		return fmt.Errorf("%w: target_weight_kg must be positive", ErrInvalidProfile)
	case p.ProteinPercent < 0 || p.CarbsPercent < 0 || p.FatPercent < 0:
		return fmt.Errorf("%w: macro percentages must not be negative", ErrInvalidProfile)
	case p.ProteinPercent+p.CarbsPercent+p.FatPercent <= 0:
		return fmt.Errorf("%w: macro percentages must not all be zero", ErrInvalidProfile)
	}
	return nil
}

// ToDTO конвертирует storage.UserProfile в ProfileDTO
func ToDTO(p storage.UserProfile) ProfileDTO {
	return ProfileDTO{
		UserID:               p.UserID,
		Age:                  p.Age,
		Gender:               p.Gender,
		HeightCM:             p.HeightCM,
		ActivityLevel:        p.ActivityLevel,
		Goal:                 p.Goal,
		TargetWeightKG:       p.TargetWeightKG,
		TargetKcalDeficit:    p.TargetKcalDeficit,
		ProteinPercent:       p.ProteinPercent,
		CarbsPercent:         p.CarbsPercent,
		FatPercent:           p.FatPercent,
		DietaryRestrictions:  nonNil(p.DietaryRestrictions),
		Allergies:            nonNil(p.Allergies),
		PreferTurkishCuisine: p.PreferTurkishCuisine,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
