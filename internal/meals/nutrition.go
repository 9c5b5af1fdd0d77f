package meals

import (
	"math"
	"strings"

	"github.com/fdg312/macro-coach/internal/storage"
)

// Nutrition: пищевая ценность на 100 г
type Nutrition struct {
	ProteinG float64
	CarbsG   float64
	FatG     float64
	Kcal     float64
}

// Pantry: турецкие базовые продукты. Ключи в нижнем регистре.
var Pantry = map[string]Nutrition{
	// крупы и бобовые
	"bulgur":       {ProteinG: 12, CarbsG: 76, FatG: 1.3, Kcal: 342},
	"kuru fasulye": {ProteinG: 21, CarbsG: 60, FatG: 1.1, Kcal: 333},
	"mercimek":     {ProteinG: 24, CarbsG: 60, FatG: 1.1, Kcal: 353},
	"nohut":        {ProteinG: 19, CarbsG: 61, FatG: 6.0, Kcal: 364},
	"pirinç":       {ProteinG: 7, CarbsG: 78, FatG: 0.7, Kcal: 365},

	// белки
	"tavuk göğsü":  {ProteinG: 31, CarbsG: 0, FatG: 3.6, Kcal: 165},
	"dana eti":     {ProteinG: 26, CarbsG: 0, FatG: 15, Kcal: 250},
	"balık":        {ProteinG: 22, CarbsG: 0, FatG: 4, Kcal: 120},
	"yumurta":      {ProteinG: 13, CarbsG: 1.1, FatG: 11, Kcal: 155},
	"lor peyniri":  {ProteinG: 11, CarbsG: 4, FatG: 4, Kcal: 98},
	"beyaz peynir": {ProteinG: 17, CarbsG: 1, FatG: 21, Kcal: 264},

	// овощи
	"domates":   {ProteinG: 0.9, CarbsG: 3.9, FatG: 0.2, Kcal: 18},
	"salatalık": {ProteinG: 0.7, CarbsG: 3.6, FatG: 0.1, Kcal: 16},
	"soğan":     {ProteinG: 1.1, CarbsG: 9.3, FatG: 0.1, Kcal: 40},
	"biber":     {ProteinG: 1, CarbsG: 6, FatG: 0.3, Kcal: 31},
	"patlıcan":  {ProteinG: 1, CarbsG: 6, FatG: 0.2, Kcal: 25},
	"kabak":     {ProteinG: 1.2, CarbsG: 7, FatG: 0.1, Kcal: 17},

	// жиры и орехи
	"zeytinyağı": {ProteinG: 0, CarbsG: 0, FatG: 100, Kcal: 884},
	"tereyağı":   {ProteinG: 0.9, CarbsG: 0.1, FatG: 81, Kcal: 717},
	"ceviz":      {ProteinG: 15, CarbsG: 14, FatG: 65, Kcal: 654},
	"badem":      {ProteinG: 21, CarbsG: 22, FatG: 49, Kcal: 579},
}

const (
	eggGrams        = 50.0
	waterGlassML    = 200.0
	teaGlassML      = 100.0
	defaultPortionG = 100.0
)

// MealNutrition: итог по блюду
type MealNutrition struct {
	Kcal     int     `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Grams переводит количество в граммы.
func Grams(ing storage.Ingredient) float64 {
	name := strings.ToLower(strings.TrimSpace(ing.Name))
	switch strings.TrimSpace(ing.Unit) {
	case "g":
		return ing.Amount
	case "kg":
		return ing.Amount * 1000
	case "su bardağı":
		return ing.Amount * waterGlassML
	case "çay bardağı":
		return ing.Amount * teaGlassML
	case "adet":
		if name == "yumurta" {
			return ing.Amount * eggGrams
		}
	}
	// неизвестная единица: считаем порцией 100 г
	return ing.Amount * defaultPortionG
}

// CalculateMealNutrition суммирует ценность ингредиентов. Продукты не из Pantry не учитываются.
func CalculateMealNutrition(ingredients []storage.Ingredient) MealNutrition {
	var kcal, protein, carbs, fat float64
	for _, ing := range ingredients {
		n, ok := Pantry[strings.ToLower(strings.TrimSpace(ing.Name))]
		if !ok {
			continue
		}
		factor := Grams(ing) / 100
		kcal += n.Kcal * factor
		protein += n.ProteinG * factor
		carbs += n.CarbsG * factor
		fat += n.FatG * factor
	}
	return MealNutrition{
		Kcal:     int(math.Round(kcal)),
		ProteinG: round1(protein),
		CarbsG:   round1(carbs),
		FatG:     round1(fat),
	}
}

// MacroGap: сколько граммов не хватает до цели
type MacroGap struct {
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

const maxSuggestions = 3

// IngredientSuggestions предлагает продукты для закрытия дефицита макросов.
func IngredientSuggestions(gap MacroGap) []string {
	suggestions := make([]string, 0, 12)
	if gap.ProteinG > 10 {
		suggestions = append(suggestions, "tavuk göğsü", "yumurta", "lor peyniri", "balık")
	}
	if gap.CarbsG > 20 {
		suggestions = append(suggestions, "bulgur", "pirinç", "mercimek", "nohut")
	}
	if gap.FatG > 5 {
		suggestions = append(suggestions, "zeytinyağı", "ceviz", "badem", "tereyağı")
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
