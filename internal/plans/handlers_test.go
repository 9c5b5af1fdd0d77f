package plans

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/macro-coach/internal/cache"
	"github.com/fdg312/macro-coach/internal/meals"
	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/fdg312/macro-coach/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

type fixture struct {
	store   *memory.MemoryStorage
	cache   *cache.MemoryPlanCache
	service *Service
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	clock := func() time.Time { return testNow }
	metricsService := metrics.NewService(store, time.UTC).WithClock(clock)
	engine := planner.NewEngine(time.UTC).WithClock(clock)
	planCache := cache.NewMemoryPlanCache(time.Hour)

	service := NewService(store, metricsService, engine, meals.NewMockGenerator(), planCache, Options{}, nil)
	return &fixture{store: store, cache: planCache, service: service, handler: NewHandler(service)}
}

func (f *fixture) seedDemoUser(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	err := f.store.UpsertProfile(ctx, &storage.UserProfile{
		UserID:               "demo_user",
		Age:                  28,
		Gender:               planner.GenderMale,
		HeightCM:             175,
		ActivityLevel:        planner.ActivityModeratelyActive,
		Goal:                 planner.GoalLoseWeight,
		TargetWeightKG:       floatPtr(75),
		ProteinPercent:       35,
		CarbsPercent:         40,
		FatPercent:           25,
		PreferTurkishCuisine: true,
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	for d := 5; d >= 1; d-- {
		f.store.InsertMetric(ctx, &storage.HealthMetric{
			UserID:    "demo_user",
			Timestamp: testNow.AddDate(0, 0, -d),
			Weight:    floatPtr(80),
		})
	}
}

func TestHandleGenerateDefaultsToTomorrow(t *testing.T) {
	f := newFixture(t)
	f.seedDemoUser(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/demo_user/plans", nil)
	req.SetPathValue("user_id", "demo_user")
	w := httptest.NewRecorder()

	f.handler.HandleGenerate(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp PlanDTO
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Date != "2024-03-11" {
		t.Errorf("expected tomorrow 2024-03-11, got %s", resp.Date)
	}
	if resp.TargetKcal != 2226 {
		t.Errorf("expected target 2226, got %d", resp.TargetKcal)
	}
	if len(resp.AdjustmentsMade) != 2 {
		t.Errorf("expected goal and trend adjustments, got %v", resp.AdjustmentsMade)
	}
	if resp.PlanReasoning == "" {
		t.Error("expected reasoning trace")
	}
	if len(resp.SuggestedMeals) != 4 {
		t.Fatalf("expected 4 suggested meals, got %d", len(resp.SuggestedMeals))
	}

	sum := 0
	for _, m := range resp.SuggestedMeals {
		sum += m.Kcal
	}
	if sum < resp.TargetKcal-2 || sum > resp.TargetKcal+2 {
		t.Errorf("meal kcal %d should add up to target %d", sum, resp.TargetKcal)
	}

	stored, err := f.store.GetPlan(context.Background(), "demo_user", "2024-03-11")
	if err != nil {
		t.Fatalf("plan must be persisted: %v", err)
	}
	if stored.TargetKcal != 2226 {
		t.Errorf("unexpected stored plan: %+v", stored)
	}
}

func TestGenerateReplacesPlanForSameDate(t *testing.T) {
	f := newFixture(t)
	f.seedDemoUser(t)
	ctx := context.Background()

	if _, err := f.service.Generate(ctx, "demo_user", "2024-03-12", nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	profile, _ := f.store.GetProfile(ctx, "demo_user")
	profile.Goal = planner.GoalMaintainWeight
	f.store.UpsertProfile(ctx, profile)

	second, err := f.service.Generate(ctx, "demo_user", "2024-03-12", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	list, _ := f.service.List(ctx, "demo_user", 0)
	if len(list) != 1 {
		t.Fatalf("expected exactly one plan for the date, got %d", len(list))
	}
	if list[0].TargetKcal != second.TargetKcal || second.TargetKcal != 2526 {
		t.Errorf("expected replaced plan with target 2526, got %d / %d", list[0].TargetKcal, second.TargetKcal)
	}

	cached, err := f.service.Get(ctx, "demo_user", "2024-03-12")
	if err != nil || cached.TargetKcal != 2526 {
		t.Errorf("cache must follow the replacement, got %+v err=%v", cached, err)
	}
}

func TestGenerateWithoutProfile(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/ghost/plans", bytes.NewBufferString(`{}`))
	req.SetPathValue("user_id", "ghost")
	w := httptest.NewRecorder()

	f.handler.HandleGenerate(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	var resp ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Error.Code != "profile_not_found" {
		t.Errorf("expected profile_not_found, got %s", resp.Error.Code)
	}
}

func TestGenerateInvalidDate(t *testing.T) {
	f := newFixture(t)
	f.seedDemoUser(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/demo_user/plans", bytes.NewBufferString(`{"date":"tomorrow"}`))
	req.SetPathValue("user_id", "demo_user")
	w := httptest.NewRecorder()

	f.handler.HandleGenerate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestHandleGetReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.UpsertPlan(ctx, &storage.DailyPlan{UserID: "demo_user", Date: "2024-03-11", TargetKcal: 2000})

	req := httptest.NewRequest(http.MethodGet, "/v1/users/demo_user/plans/2024-03-11", nil)
	req.SetPathValue("user_id", "demo_user")
	req.SetPathValue("date", "2024-03-11")
	w := httptest.NewRecorder()

	f.handler.HandleGet(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if _, ok, _ := f.cache.GetPlan(ctx, "demo_user", "2024-03-11"); !ok {
		t.Error("expected plan to be cached after a store read")
	}

	var resp PlanDTO
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.SuggestedMeals == nil || resp.AdjustmentsMade == nil {
		t.Error("expected empty lists instead of null")
	}
}

func TestHandleGetMissingPlan(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/demo_user/plans/2024-03-11", nil)
	req.SetPathValue("user_id", "demo_user")
	req.SetPathValue("date", "2024-03-11")
	w := httptest.NewRecorder()

	f.handler.HandleGet(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestHandleSwap(t *testing.T) {
	f := newFixture(t)
	f.seedDemoUser(t)
	ctx := context.Background()

	plan, err := f.service.Generate(ctx, "demo_user", "2024-03-11", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	dinner := plan.SuggestedMeals[2]

	body, _ := json.Marshal(SwapMealRequest{MealID: dinner.MealID})
	req := httptest.NewRequest(http.MethodPost, "/v1/users/demo_user/plans/2024-03-11/swap", bytes.NewReader(body))
	req.SetPathValue("user_id", "demo_user")
	req.SetPathValue("date", "2024-03-11")
	w := httptest.NewRecorder()

	f.handler.HandleSwap(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SwapMealResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Meal.Name == dinner.Name || resp.Meal.Kcal != dinner.Kcal {
		t.Errorf("expected a different dinner with the same kcal, got %+v", resp.Meal)
	}

	stored, _ := f.store.GetPlan(ctx, "demo_user", "2024-03-11")
	if stored.SuggestedMeals[2].MealID != resp.Meal.MealID {
		t.Error("swap must be persisted")
	}
	if len(stored.SuggestedMeals) != 4 {
		t.Errorf("expected 4 meals after swap, got %d", len(stored.SuggestedMeals))
	}

	body, _ = json.Marshal(SwapMealRequest{MealID: "nope"})
	req = httptest.NewRequest(http.MethodPost, "/v1/users/demo_user/plans/2024-03-11/swap", bytes.NewReader(body))
	req.SetPathValue("user_id", "demo_user")
	req.SetPathValue("date", "2024-03-11")
	w = httptest.NewRecorder()
	f.handler.HandleSwap(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown meal, got %d", w.Code)
	}
}
