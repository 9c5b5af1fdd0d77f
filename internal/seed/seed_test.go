package seed

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/fdg312/macro-coach/internal/cache"
	"github.com/fdg312/macro-coach/internal/meals"
	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/plans"
	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/fdg312/macro-coach/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func TestGenerateMetricsDeterministic(t *testing.T) {
	profile := DemoProfiles()[0]
	opts := Options{Days: 14, Seed: 7, Now: testNow}

	first := GenerateMetrics(profile, opts, rand.New(rand.NewSource(7)))
	second := GenerateMetrics(profile, opts, rand.New(rand.NewSource(7)))

	if !reflect.DeepEqual(first, second) {
		t.Fatal("same seed must produce identical history")
	}

	other := GenerateMetrics(profile, opts, rand.New(rand.NewSource(8)))
	if reflect.DeepEqual(first, other) {
		t.Error("different seeds produced identical history")
	}
}

func TestGenerateMetricsShape(t *testing.T) {
	for _, profile := range DemoProfiles() {
		t.Run(profile.UserID, func(t *testing.T) {
			history := GenerateMetrics(profile, Options{Days: 14, Now: testNow}, rand.New(rand.NewSource(1)))

			first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			last := time.Date(2024, 3, 14, 23, 59, 59, 0, time.UTC)
			days := map[string]bool{}
			weights := 0

			for _, m := range history {
				if m.UserID != profile.UserID {
					t.Fatalf("unexpected user %q", m.UserID)
				}
				if m.Timestamp.Before(first) || m.Timestamp.After(last) {
					t.Fatalf("timestamp %s outside seeded window", m.Timestamp)
				}
				days[m.Timestamp.Format(planner.DateLayout)] = true

				if m.Weight != nil {
					weights++
					if *m.Weight < minWeightKG || *m.Weight > maxWeightKG {
						t.Errorf("weight %.1f out of bounds", *m.Weight)
					}
				}
				if m.Steps != nil && *m.Steps < 2000 {
					t.Errorf("steps %d below floor", *m.Steps)
				}
				if m.RPE != nil && (*m.RPE < 4 || *m.RPE > 9) {
					t.Errorf("rpe %d out of range", *m.RPE)
				}
				if m.WorkoutType != nil && !metrics.IsValidWorkoutType(*m.WorkoutType) {
					t.Errorf("invalid workout type %q", *m.WorkoutType)
				}
			}

			if len(days) != 14 {
				t.Errorf("expected 14 distinct days, got %d", len(days))
			}
			if weights != 14 {
				t.Errorf("expected one weight per day, got %d", weights)
			}
		})
	}
}

func TestGenerateMetricsDailyIntakeCountedOnce(t *testing.T) {
	profile := DemoProfiles()[0]
	history := GenerateMetrics(profile, Options{Days: 30, Now: testNow}, rand.New(rand.NewSource(3)))

	perDay := map[string]int{}
	for _, m := range history {
		if m.KcalIn != nil {
			perDay[m.Timestamp.Format(planner.DateLayout)] += int(*m.KcalIn)
		}
	}
	for day, kcal := range perDay {
		// цель lose_weight: TDEE-300 ±200, не меньше 1200
		if kcal < 1200 || kcal > 3200 {
			t.Errorf("%s: implausible daily intake %d", day, kcal)
		}
	}
}

func TestRunSeedsStorageAndPlans(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := func() time.Time { return testNow }
	metricsService := metrics.NewService(store, time.UTC).WithClock(clock)
	engine := planner.NewEngine(time.UTC).WithClock(clock)
	planService := plans.NewService(store, metricsService, engine, meals.NewMockGenerator(),
		cache.NewMemoryPlanCache(time.Hour), plans.Options{}, nil)

	result, err := Run(ctx, store, planService, Options{Now: testNow}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Users) != 2 {
		t.Fatalf("expected 2 users, got %v", result.Users)
	}
	if result.Plans != 2 {
		t.Errorf("expected 2 plans, got %d", result.Plans)
	}

	total := 0
	for _, userID := range result.Users {
		profile, err := store.GetProfile(ctx, userID)
		if err != nil {
			t.Fatalf("profile %s: %v", userID, err)
		}
		if profile.ProteinPercent+profile.CarbsPercent+profile.FatPercent != 100 {
			t.Errorf("%s: split does not sum to 100", userID)
		}

		rows, err := store.ListMetrics(ctx, storage.MetricQuery{UserID: userID})
		if err != nil {
			t.Fatalf("metrics %s: %v", userID, err)
		}
		if len(rows) < DefaultDays {
			t.Errorf("%s: expected at least %d metrics, got %d", userID, DefaultDays, len(rows))
		}
		total += len(rows)

		plan, err := store.GetPlan(ctx, userID, "2024-03-16")
		if err != nil {
			t.Fatalf("plan %s: %v", userID, err)
		}
		if plan.TargetKcal < 1200 {
			t.Errorf("%s: target kcal %d below floor", userID, plan.TargetKcal)
		}
	}
	if total != result.Metrics {
		t.Errorf("result reports %d metrics, storage holds %d", result.Metrics, total)
	}
}

func TestRunWithoutPlanService(t *testing.T) {
	result, err := Run(context.Background(), memory.New(), nil, Options{Days: 3, Now: testNow}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Plans != 0 {
		t.Errorf("expected no plans, got %d", result.Plans)
	}
}

func TestRunStorageClosed(t *testing.T) {
	store := memory.New()
	store.Close()

	if _, err := Run(context.Background(), store, nil, Options{Now: testNow}, nil); err == nil {
		t.Fatal("expected error from closed storage")
	}
}
