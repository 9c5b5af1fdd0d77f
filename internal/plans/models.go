package plans

import (
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

// PlanDTO: дневной план в API
type PlanDTO struct {
	UserID               string         `json:"user_id"`
	Date                 string         `json:"date"`
	TargetKcal           int            `json:"target_kcal"`
	TargetProteinG       float64        `json:"target_protein_g"`
	TargetCarbsG         float64        `json:"target_carbs_g"`
	TargetFatG           float64        `json:"target_fat_g"`
	TargetSteps          int            `json:"target_steps"`
	TargetWorkoutMinutes int            `json:"target_workout_minutes"`
	SuggestedMeals       []storage.Meal `json:"suggested_meals"`
	PlanReasoning        string         `json:"plan_reasoning"`
	AdjustmentsMade      []string       `json:"adjustments_made"`
	CreatedAt            time.Time      `json:"created_at"`
}

// GeneratePlanRequest: тело POST /v1/users/{user_id}/plans
type GeneratePlanRequest struct {
	Date                string   `json:"date,omitempty"`
	ExcludedIngredients []string `json:"excluded_ingredients,omitempty"`
}

// SwapMealRequest: тело POST /v1/users/{user_id}/plans/{date}/swap
type SwapMealRequest struct {
	MealID string `json:"meal_id"`
}

type SwapMealResponse struct {
	OldMealID string       `json:"old_meal_id"`
	Meal      storage.Meal `json:"meal"`
	Plan      PlanDTO      `json:"plan"`
}

type PlansResponse struct {
	Plans []PlanDTO `json:"plans"`
}

// ErrorResponse: формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToDTO конвертирует storage.DailyPlan в PlanDTO
func ToDTO(p storage.DailyPlan) PlanDTO {
	meals := p.SuggestedMeals
	if meals == nil {
		meals = []storage.Meal{}
	}
	adjustments := p.AdjustmentsMade
	if adjustments == nil {
		adjustments = []string{}
	}
	return PlanDTO{
		UserID:               p.UserID,
		Date:                 p.Date,
		TargetKcal:           p.TargetKcal,
		TargetProteinG:       p.TargetProteinG,
		TargetCarbsG:         p.TargetCarbsG,
		TargetFatG:           p.TargetFatG,
		TargetSteps:          p.TargetSteps,
		TargetWorkoutMinutes: p.TargetWorkoutMinutes,
		SuggestedMeals:       meals,
		PlanReasoning:        p.PlanReasoning,
		AdjustmentsMade:      adjustments,
		CreatedAt:            p.CreatedAt,
	}
}
