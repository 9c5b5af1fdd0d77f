package meals

import (
	"context"
	"strings"

	"github.com/fdg312/macro-coach/internal/storage"
)

type template struct {
	Name         string
	Ingredients  []storage.Ingredient
	Instructions []string
	PrepMinutes  int
	CookMinutes  int
	Tags         []string
}

// templates: по несколько вариантов на слот; первый используется по умолчанию.
var templates = map[string][]template{
	Breakfast: {
		{
			Name: "Menemen with Cheese",
			Ingredients: []storage.Ingredient{
				{Name: "yumurta", Amount: 2, Unit: "adet"},
				{Name: "domates", Amount: 100, Unit: "g"},
				{Name: "biber", Amount: 50, Unit: "g"},
				{Name: "beyaz peynir", Amount: 30, Unit: "g"},
				{Name: "zeytinyağı", Amount: 5, Unit: "g"},
			},
			Instructions: []string{"Sebzeleri doğrayın", "Tavada zeytinyağında soteleyin", "Yumurtaları ekleyip karıştırın", "Peyniri üzerine serpin"},
			PrepMinutes:  5,
			CookMinutes:  10,
			Tags:         []string{"turkish", "quick", "vegetarian"},
		},
		{
			Name: "Bulgur Porridge with Curd Cheese",
			Ingredients: []storage.Ingredient{
				{Name: "bulgur", Amount: 60, Unit: "g"},
				{Name: "lor peyniri", Amount: 100, Unit: "g"},
				{Name: "salatalık", Amount: 80, Unit: "g"},
			},
			Instructions: []string{"Bulguru sıcak suda haşlayın", "Lor peynirini ekleyin", "Salatalıkla servis edin"},
			PrepMinutes:  5,
			CookMinutes:  12,
			Tags:         []string{"turkish", "vegetarian"},
		},
		{
			Name: "Chickpea and Tomato Scramble",
			Ingredients: []storage.Ingredient{
				{Name: "nohut", Amount: 60, Unit: "g"},
				{Name: "domates", Amount: 120, Unit: "g"},
				{Name: "soğan", Amount: 40, Unit: "g"},
				{Name: "zeytinyağı", Amount: 5, Unit: "g"},
			},
			Instructions: []string{"Nohutu ezin", "Soğan ve domatesle soteleyin"},
			PrepMinutes:  5,
			CookMinutes:  10,
			Tags:         []string{"turkish", "vegan"},
		},
	},
	Lunch: {
		{
			Name: "Grilled Chicken with Bulgur",
			Ingredients: []storage.Ingredient{
				{Name: "tavuk göğsü", Amount: 150, Unit: "g"},
				{Name: "bulgur", Amount: 80, Unit: "g"},
				{Name: "domates", Amount: 100, Unit: "g"},
				{Name: "salatalık", Amount: 100, Unit: "g"},
				{Name: "zeytinyağı", Amount: 10, Unit: "g"},
			},
			Instructions: []string{"Tavuk göğsünü marine edin", "Bulguru haşlayın", "Tavuğu ızgarada pişirin", "Salata hazırlayın"},
			PrepMinutes:  15,
			CookMinutes:  20,
			Tags:         []string{"turkish", "high-protein", "balanced"},
		},
		{
			Name: "Chickpea Stew with Rice",
			Ingredients: []storage.Ingredient{
				{Name: "nohut", Amount: 80, Unit: "g"},
				{Name: "pirinç", Amount: 60, Unit: "g"},
				{Name: "domates", Amount: 100, Unit: "g"},
				{Name: "soğan", Amount: 50, Unit: "g"},
				{Name: "zeytinyağı", Amount: 10, Unit: "g"},
			},
			Instructions: []string{"Nohutu bir gece önceden ıslatın", "Soğan ve domatesle pişirin", "Pilavı ayrı hazırlayın"},
			PrepMinutes:  10,
			CookMinutes:  35,
			Tags:         []string{"turkish", "vegan"},
		},
		{
			Name: "Baked Fish with Vegetables",
			Ingredients: []storage.Ingredient{
				{Name: "balık", Amount: 180, Unit: "g"},
				{Name: "kabak", Amount: 150, Unit: "g"},
				{Name: "biber", Amount: 80, Unit: "g"},
				{Name: "zeytinyağı", Amount: 10, Unit: "g"},
			},
			Instructions: []string{"Sebzeleri dilimleyin", "Balığı sebzelerle fırına verin"},
			PrepMinutes:  10,
			CookMinutes:  25,
			Tags:         []string{"turkish", "high-protein"},
		},
	},
	Dinner: {
		{
			Name: "Lentil Soup with Bulgur Pilaf",
			Ingredients: []storage.Ingredient{
				{Name: "mercimek", Amount: 70, Unit: "g"},
				{Name: "bulgur", Amount: 60, Unit: "g"},
				{Name: "soğan", Amount: 50, Unit: "g"},
				{Name: "tereyağı", Amount: 10, Unit: "g"},
			},
			Instructions: []string{"Mercimeği soğanla haşlayın", "Blenderdan geçirin", "Bulgur pilavını tereyağında pişirin"},
			PrepMinutes:  10,
			CookMinutes:  30,
			Tags:         []string{"turkish", "vegetarian", "comfort"},
		},
		{
			Name: "Beef and Eggplant Kebab",
			Ingredients: []storage.Ingredient{
				{Name: "dana eti", Amount: 150, Unit: "g"},
				{Name: "patlıcan", Amount: 200, Unit: "g"},
				{Name: "domates", Amount: 100, Unit: "g"},
				{Name: "biber", Amount: 50, Unit: "g"},
			},
			Instructions: []string{"Eti ve patlıcanı şişe dizin", "Izgarada pişirin", "Domates ve biberle servis edin"},
			PrepMinutes:  15,
			CookMinutes:  20,
			Tags:         []string{"turkish", "high-protein"},
		},
		{
			Name: "Stuffed Zucchini with Rice",
			Ingredients: []storage.Ingredient{
				{Name: "kabak", Amount: 250, Unit: "g"},
				{Name: "pirinç", Amount: 50, Unit: "g"},
				{Name: "domates", Amount: 100, Unit: "g"},
				{Name: "soğan", Amount: 40, Unit: "g"},
				{Name: "zeytinyağı", Amount: 10, Unit: "g"},
			},
			Instructions: []string{"Kabakların içini oyun", "Pirinçli harcı doldurun", "Kısık ateşte pişirin"},
			PrepMinutes:  20,
			CookMinutes:  40,
			Tags:         []string{"turkish", "vegan"},
		},
	},
	Snack: {
		{
			Name: "Walnuts and Curd Cheese",
			Ingredients: []storage.Ingredient{
				{Name: "ceviz", Amount: 20, Unit: "g"},
				{Name: "lor peyniri", Amount: 100, Unit: "g"},
			},
			Instructions: []string{"Lor peynirini kaseye alın", "Cevizleri üzerine serpin"},
			PrepMinutes:  2,
			Tags:         []string{"turkish", "quick", "vegetarian"},
		},
		{
			Name: "Cucumber and White Cheese",
			Ingredients: []storage.Ingredient{
				{Name: "salatalık", Amount: 150, Unit: "g"},
				{Name: "beyaz peynir", Amount: 40, Unit: "g"},
			},
			Instructions: []string{"Salatalığı dilimleyin", "Peynirle servis edin"},
			PrepMinutes:  3,
			Tags:         []string{"turkish", "quick", "vegetarian"},
		},
		{
			Name: "Roasted Chickpeas",
			Ingredients: []storage.Ingredient{
				{Name: "nohut", Amount: 40, Unit: "g"},
				{Name: "zeytinyağı", Amount: 3, Unit: "g"},
			},
			Instructions: []string{"Haşlanmış nohutu kurutun", "Fırında çıtır olana kadar kavurun"},
			PrepMinutes:  5,
			CookMinutes:  25,
			Tags:         []string{"turkish", "vegan"},
		},
	},
}

// MockGenerator подбирает блюда из шаблонов без внешних вызовов.
// Макросы блюда точно равны доле слота, а не пересчитываются из ингредиентов.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (g *MockGenerator) GenerateMeals(ctx context.Context, plan storage.DailyPlan, profile storage.UserProfile, excluded []string) ([]storage.Meal, error) {
	blocked := BlockedIngredients(profile, excluded)
	result := make([]storage.Meal, 0, len(Slots))
	for _, slot := range Slots {
		meal, ok := g.mealFor(SlotTarget(plan, slot), plan.Date, blocked, "")
		if ok {
			result = append(result, meal)
		}
	}
	return result, nil
}

func (g *MockGenerator) SwapMeal(ctx context.Context, mealID string, plan storage.DailyPlan, profile storage.UserProfile) (*storage.Meal, error) {
	old, _ := FindMeal(plan, mealID)
	if old == nil {
		return nil, ErrMealNotFound
	}

	meal, ok := g.mealFor(targetOf(*old), plan.Date, BlockedIngredients(profile, nil), old.Name)
	if !ok {
		return nil, ErrMealNotFound
	}
	return &meal, nil
}

// mealFor берёт первый разрешённый шаблон слота после шаблона after (по кругу).
func (g *MockGenerator) mealFor(target Target, date string, blocked map[string]bool, after string) (storage.Meal, bool) {
	options := templates[target.MealType]
	if len(options) == 0 {
		return storage.Meal{}, false
	}

	start := 0
	if after != "" {
		for i, t := range options {
			if strings.EqualFold(t.Name, after) {
				start = i + 1
				break
			}
		}
	}

	for i := 0; i < len(options); i++ {
		t := options[(start+i)%len(options)]
		if after != "" && strings.EqualFold(t.Name, after) {
			continue
		}
		if usesBlocked(t.Ingredients, blocked) {
			continue
		}
		return t.meal(target, date), true
	}
	return storage.Meal{}, false
}

func (t template) meal(target Target, date string) storage.Meal {
	ingredients := make([]storage.Ingredient, len(t.Ingredients))
	copy(ingredients, t.Ingredients)
	return storage.Meal{
		MealID:          NewMealID(target.MealType, date),
		Name:            t.Name,
		MealType:        target.MealType,
		Kcal:            target.Kcal,
		ProteinG:        target.ProteinG,
		CarbsG:          target.CarbsG,
		FatG:            target.FatG,
		Ingredients:     ingredients,
		Instructions:    append([]string(nil), t.Instructions...),
		PrepTimeMinutes: t.PrepMinutes,
		CookTimeMinutes: t.CookMinutes,
		Servings:        1,
		Tags:            append([]string(nil), t.Tags...),
		Difficulty:      "easy",
	}
}
