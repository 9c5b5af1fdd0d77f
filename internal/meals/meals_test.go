package meals

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/storage"
)

func testPlan() storage.DailyPlan {
	return storage.DailyPlan{
		UserID:         "demo_user",
		Date:           "2024-03-02",
		TargetKcal:     2226,
		TargetProteinG: 194.8,
		TargetCarbsG:   222.6,
		TargetFatG:     61.8,
	}
}

func TestCalculateMealNutritionUnits(t *testing.T) {
	got := CalculateMealNutrition([]storage.Ingredient{
		{Name: "Yumurta", Amount: 2, Unit: "adet"},     // 100 g
		{Name: "bulgur", Amount: 0.1, Unit: "kg"},      // 100 g
		{Name: "pirinç", Amount: 1, Unit: "porsiyon"},  // неизвестная единица -> 100 g
		{Name: "unicorn meat", Amount: 500, Unit: "g"}, // не из Pantry
	})

	if got.Kcal != 155+342+365 {
		t.Errorf("expected kcal %d, got %d", 155+342+365, got.Kcal)
	}
	if got.ProteinG != 32 {
		t.Errorf("expected protein 32.0, got %.1f", got.ProteinG)
	}
	if got.FatG != 13 {
		t.Errorf("expected fat 13.0, got %.1f", got.FatG)
	}
}

func TestGramsGlasses(t *testing.T) {
	if g := Grams(storage.Ingredient{Name: "pirinç", Amount: 1, Unit: "su bardağı"}); g != 200 {
		t.Errorf("expected 200 g, got %v", g)
	}
	if g := Grams(storage.Ingredient{Name: "mercimek", Amount: 2, Unit: "çay bardağı"}); g != 200 {
		t.Errorf("expected 200 g, got %v", g)
	}
	// "adet" только для яиц
	if g := Grams(storage.Ingredient{Name: "domates", Amount: 1, Unit: "adet"}); g != 100 {
		t.Errorf("expected 100 g fallback, got %v", g)
	}
}

func TestIngredientSuggestions(t *testing.T) {
	tests := []struct {
		name string
		gap  MacroGap
		want []string
	}{
		{"protein first", MacroGap{ProteinG: 25, CarbsG: 50, FatG: 10}, []string{"tavuk göğsü", "yumurta", "lor peyniri"}},
		{"carbs only", MacroGap{CarbsG: 21}, []string{"bulgur", "pirinç", "mercimek"}},
		{"fat only", MacroGap{FatG: 6}, []string{"zeytinyağı", "ceviz", "badem"}},
		{"below thresholds", MacroGap{ProteinG: 10, CarbsG: 20, FatG: 5}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IngredientSuggestions(tt.gap)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMockGeneratorFollowsSplit(t *testing.T) {
	plan := testPlan()
	meals, err := NewMockGenerator().GenerateMeals(context.Background(), plan, storage.UserProfile{}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(meals) != 4 {
		t.Fatalf("expected 4 meals, got %d", len(meals))
	}

	idPattern := regexp.MustCompile(`^(breakfast|lunch|dinner|snack)_20240302_[0-9a-f]{8}$`)
	wantKcal := map[string]int{Breakfast: 557, Lunch: 779, Dinner: 668, Snack: 223}
	for i, m := range meals {
		if m.MealType != Slots[i].MealType {
			t.Errorf("expected slot %s at %d, got %s", Slots[i].MealType, i, m.MealType)
		}
		if m.Kcal != wantKcal[m.MealType] {
			t.Errorf("%s: expected %d kcal, got %d", m.MealType, wantKcal[m.MealType], m.Kcal)
		}
		wantProtein := math.Round(plan.TargetProteinG*Slots[i].Ratio*10) / 10
		if m.ProteinG != wantProtein {
			t.Errorf("%s: expected protein %.1f, got %.1f", m.MealType, wantProtein, m.ProteinG)
		}
		if !idPattern.MatchString(m.MealID) {
			t.Errorf("unexpected meal id %q", m.MealID)
		}
	}
	if meals[0].Name != "Menemen with Cheese" || meals[3].Name != "Walnuts and Curd Cheese" {
		t.Errorf("unexpected default templates: %s / %s", meals[0].Name, meals[3].Name)
	}
}

func TestMockGeneratorHonorsRestrictions(t *testing.T) {
	profile := storage.UserProfile{
		DietaryRestrictions: []string{"vegetarian"},
		Allergies:           []string{"nuts"},
	}
	meals, _ := NewMockGenerator().GenerateMeals(context.Background(), testPlan(), profile, []string{"yumurta"})

	blocked := BlockedIngredients(profile, []string{"yumurta"})
	for _, m := range meals {
		if usesBlocked(m.Ingredients, blocked) {
			t.Errorf("%s uses a blocked ingredient: %+v", m.Name, m.Ingredients)
		}
	}
	names := map[string]string{}
	for _, m := range meals {
		names[m.MealType] = m.Name
	}
	if names[Breakfast] != "Bulgur Porridge with Curd Cheese" {
		t.Errorf("expected egg-free breakfast, got %s", names[Breakfast])
	}
	if names[Lunch] != "Chickpea Stew with Rice" {
		t.Errorf("expected vegetarian lunch, got %s", names[Lunch])
	}
	if names[Snack] != "Cucumber and White Cheese" {
		t.Errorf("expected nut-free snack, got %s", names[Snack])
	}
}

func TestMockSwapKeepsTargets(t *testing.T) {
	gen := NewMockGenerator()
	plan := testPlan()
	meals, _ := gen.GenerateMeals(context.Background(), plan, storage.UserProfile{}, nil)
	plan.SuggestedMeals = meals

	lunch := meals[1]
	swapped, err := gen.SwapMeal(context.Background(), lunch.MealID, plan, storage.UserProfile{})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if swapped.Name == lunch.Name {
		t.Errorf("expected a different meal, got %s again", swapped.Name)
	}
	if swapped.MealID == lunch.MealID {
		t.Error("expected a new meal id")
	}
	if swapped.Kcal != lunch.Kcal || swapped.ProteinG != lunch.ProteinG || swapped.MealType != Lunch {
		t.Errorf("swap must keep the slot targets: %+v vs %+v", swapped, lunch)
	}

	if _, err := gen.SwapMeal(context.Background(), "missing", plan, storage.UserProfile{}); err != ErrMealNotFound {
		t.Errorf("expected ErrMealNotFound, got %v", err)
	}
}

func TestOpenAIGeneratorRecomputesNutrition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		meal := `{"name":"Tavuklu Bulgur","ingredients":[{"name":"tavuk göğsü","amount":100,"unit":"g"},{"name":"bulgur","amount":100,"unit":"g"}],"instructions":["pişir"],"prep_time_minutes":5,"cook_time_minutes":15}`
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": meal}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := &config.Config{OpenAIAPIKey: "test-key", OpenAIModel: "gpt-test", AITimeoutSeconds: 5}
	gen := NewOpenAIGenerator(cfg, nil).WithBaseURL(server.URL)

	meals, err := gen.GenerateMeals(context.Background(), testPlan(), storage.UserProfile{}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(meals) != 4 {
		t.Fatalf("expected 4 meals, got %d", len(meals))
	}
	m := meals[0]
	if m.Name != "Tavuklu Bulgur" || m.Kcal != 165+342 || m.ProteinG != 43 {
		t.Errorf("expected nutrition recomputed from pantry, got %+v", m)
	}
	if len(m.Tags) != 1 || m.Tags[0] != "turkish" {
		t.Errorf("expected default turkish tag, got %v", m.Tags)
	}
}

func TestOpenAIGeneratorFallsBackPerSlot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := &config.Config{OpenAIAPIKey: "test-key", AITimeoutSeconds: 5}
	gen := NewOpenAIGenerator(cfg, nil).WithBaseURL(server.URL)

	meals, err := gen.GenerateMeals(context.Background(), testPlan(), storage.UserProfile{}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(meals) != 4 || meals[1].Name != "Grilled Chicken with Bulgur" {
		t.Fatalf("expected template meals on failure, got %+v", meals)
	}
}

func TestNewGeneratorModes(t *testing.T) {
	if _, ok := NewGenerator(&config.Config{MealsMode: "mock"}, nil).(*MockGenerator); !ok {
		t.Error("expected mock generator")
	}
	if _, ok := NewGenerator(&config.Config{MealsMode: "openai"}, nil).(*MockGenerator); !ok {
		t.Error("expected mock generator when api key is missing")
	}
	if _, ok := NewGenerator(&config.Config{MealsMode: "openai", OpenAIAPIKey: "k"}, nil).(*OpenAIGenerator); !ok {
		t.Error("expected openai generator")
	}
}
