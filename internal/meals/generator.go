// Package meals attaches concrete meals to a daily plan's calorie and macro targets.
package meals

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

const (
	Breakfast = "breakfast"
	Lunch     = "lunch"
	Dinner    = "dinner"
	Snack     = "snack"
)

var ErrMealNotFound = errors.New("meal not found")

// Slot: приём пищи и его доля дневной цели
type Slot struct {
	MealType string
	Ratio    float64
}

// Slots: фиксированная раскладка дня: 25/35/30/10.
var Slots = []Slot{
	{MealType: Breakfast, Ratio: 0.25},
	{MealType: Lunch, Ratio: 0.35},
	{MealType: Dinner, Ratio: 0.30},
	{MealType: Snack, Ratio: 0.10},
}

// Generator: коллаборатор планировщика: превращает цели плана в блюда.
type Generator interface {
	GenerateMeals(ctx context.Context, plan storage.DailyPlan, profile storage.UserProfile, excluded []string) ([]storage.Meal, error)
	SwapMeal(ctx context.Context, mealID string, plan storage.DailyPlan, profile storage.UserProfile) (*storage.Meal, error)
}

// Logger is the minimal logger used by the factory and the OpenAI generator.
type Logger interface {
	Printf(format string, args ...any)
}

func logf(logger Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}

// Target: цель одного приёма пищи
type Target struct {
	MealType string
	Kcal     int
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

// SlotTarget делит дневные цели плана по доле слота.
func SlotTarget(plan storage.DailyPlan, slot Slot) Target {
	return Target{
		MealType: slot.MealType,
		Kcal:     int(math.Round(float64(plan.TargetKcal) * slot.Ratio)),
		ProteinG: round1(plan.TargetProteinG * slot.Ratio),
		CarbsG:   round1(plan.TargetCarbsG * slot.Ratio),
		FatG:     round1(plan.TargetFatG * slot.Ratio),
	}
}

// targetOf восстанавливает цель из уже выданного блюда (для замены).
func targetOf(m storage.Meal) Target {
	return Target{
		MealType: m.MealType,
		Kcal:     m.Kcal,
		ProteinG: m.ProteinG,
		CarbsG:   m.CarbsG,
		FatG:     m.FatG,
	}
}

// FindMeal ищет блюдо плана по meal_id.
func FindMeal(plan storage.DailyPlan, mealID string) (*storage.Meal, int) {
	for i := range plan.SuggestedMeals {
		if plan.SuggestedMeals[i].MealID == mealID {
			m := plan.SuggestedMeals[i]
			return &m, i
		}
	}
	return nil, -1
}

// NewMealID: <meal_type>_<YYYYMMDD>_<8 hex>
func NewMealID(mealType, date string) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return mealType + "_" + strings.ReplaceAll(date, "-", "") + "_" + short
}

// restrictionGroups раскрывает теги профиля в конкретные продукты Pantry.
var restrictionGroups = map[string][]string{
	"vegetarian":  {"tavuk göğsü", "dana eti", "balık"},
	"vegan":       {"tavuk göğsü", "dana eti", "balık", "yumurta", "lor peyniri", "beyaz peynir", "tereyağı"},
	"pescatarian": {"tavuk göğsü", "dana eti"},
	"nuts":        {"ceviz", "badem"},
	"tree_nuts":   {"ceviz", "badem"},
	"dairy":       {"lor peyniri", "beyaz peynir", "tereyağı"},
	"lactose":     {"lor peyniri", "beyaz peynir", "tereyağı"},
	"eggs":        {"yumurta"},
	"egg":         {"yumurta"},
	"fish":        {"balık"},
	"gluten":      {"bulgur"},
	"gluten_free": {"bulgur"},
	"legumes":     {"kuru fasulye", "mercimek", "nohut"},
}

// BlockedIngredients собирает всё, что нельзя класть в блюда пользователя.
func BlockedIngredients(profile storage.UserProfile, excluded []string) map[string]bool {
	blocked := make(map[string]bool)
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return
		}
		blocked[tag] = true
		for _, name := range restrictionGroups[tag] {
			blocked[name] = true
		}
	}
	for _, t := range excluded {
		add(t)
	}
	for _, t := range profile.Allergies {
		add(t)
	}
	for _, t := range profile.DietaryRestrictions {
		add(t)
	}
	return blocked
}

func usesBlocked(ingredients []storage.Ingredient, blocked map[string]bool) bool {
	for _, ing := range ingredients {
		if blocked[strings.ToLower(strings.TrimSpace(ing.Name))] {
			return true
		}
	}
	return false
}
