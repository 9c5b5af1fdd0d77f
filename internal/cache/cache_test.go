package cache

import (
	"context"
	"testing"
	"time"

	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/storage"
)

func TestMemoryPlanCacheRoundTripAndExpiry(t *testing.T) {
	c := NewMemoryPlanCache(time.Minute)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	plan := &storage.DailyPlan{
		UserID:          "demo_user",
		Date:            "2024-03-02",
		TargetKcal:      2226,
		SuggestedMeals:  []storage.Meal{{MealID: "lunch_20240302_abcd1234", Kcal: 779}},
		AdjustmentsMade: []string{"Goal-based: -300 kcal"},
	}
	if err := c.SetPlan(ctx, plan); err != nil {
		t.Fatalf("set: %v", err)
	}
	plan.TargetKcal = 1

	got, ok, err := c.GetPlan(ctx, "demo_user", "2024-03-02")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.TargetKcal != 2226 {
		t.Errorf("cached plan must not alias the caller's value, got %d", got.TargetKcal)
	}
	if len(got.SuggestedMeals) != 1 || got.SuggestedMeals[0].Kcal != 779 {
		t.Errorf("meals lost in cache: %+v", got.SuggestedMeals)
	}

	if _, ok, _ := c.GetPlan(ctx, "other_user", "2024-03-02"); ok {
		t.Error("expected miss for other user")
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.GetPlan(ctx, "demo_user", "2024-03-02"); ok {
		t.Error("expected entry to expire after ttl")
	}
}

func TestMemoryPlanCacheDelete(t *testing.T) {
	c := NewMemoryPlanCache(0)
	ctx := context.Background()
	c.SetPlan(ctx, &storage.DailyPlan{UserID: "u", Date: "2024-03-02"})
	c.DeletePlan(ctx, "u", "2024-03-02")

	if _, ok, _ := c.GetPlan(ctx, "u", "2024-03-02"); ok {
		t.Error("expected miss after delete")
	}
}

func TestNewFallsBackToMemory(t *testing.T) {
	c, mode := New(context.Background(), &config.Config{}, nil)
	if mode != ModeMemory {
		t.Fatalf("expected memory mode without REDIS_URL, got %s", mode)
	}
	if _, ok := c.(*MemoryPlanCache); !ok {
		t.Fatalf("expected *MemoryPlanCache, got %T", c)
	}

	_, mode = New(context.Background(), &config.Config{RedisURL: "not a url"}, nil)
	if mode != ModeMemory {
		t.Fatalf("expected memory fallback for invalid REDIS_URL, got %s", mode)
	}
}
