package planner

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestCalculateBMR(t *testing.T) {
	tests := []struct {
		name   string
		gender string
		want   float64
	}{
		{"male", GenderMale, 1673.75},
		{"female", GenderFemale, 1507.75},
		{"other uses female branch", GenderOther, 1507.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBMR(70, 175, 25, tt.gender)
			if got != tt.want {
				t.Fatalf("expected BMR %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

func TestCalculateBMRFloor(t *testing.T) {
	cases := []struct {
		weight, height float64
		age            int
	}{
		{20, 100, 90},
		{0, 0, 0},
		{-50, -10, 200},
		{30, 120, 120},
	}
	for _, c := range cases {
		for _, g := range []string{GenderMale, GenderFemale, GenderOther} {
			if got := CalculateBMR(c.weight, c.height, c.age, g); got < MinBMR {
				t.Fatalf("BMR below floor for %+v/%s: %.2f", c, g, got)
			}
		}
	}
	if got := CalculateBMR(20, 100, 90, GenderFemale); got != MinBMR {
		t.Fatalf("expected floor %.0f, got %.2f", MinBMR, got)
	}
}

func TestCalculateTDEE(t *testing.T) {
	bmr := 1673.75
	tests := map[string]float64{
		ActivitySedentary:        1.2,
		ActivityLightlyActive:    1.375,
		ActivityModeratelyActive: 1.55,
		ActivityVeryActive:       1.725,
		ActivityExtremelyActive:  1.9,
		"couch_potato":           1.375,
		"":                       1.375,
	}

	for level, mult := range tests {
		got := CalculateTDEE(bmr, level)
		if math.Abs(got-bmr*mult) > 1e-9 {
			t.Fatalf("level %q: expected %.4f, got %.4f", level, bmr*mult, got)
		}
	}
}

func TestGoalAdjustment(t *testing.T) {
	tests := []struct {
		goal     string
		override *int
		want     int
	}{
		{GoalLoseWeight, nil, -300},
		{GoalGainWeight, nil, 300},
		{GoalGainMuscle, nil, 300},
		{GoalMaintainWeight, nil, 0},
		{"unknown", nil, 0},
		{GoalLoseWeight, intPtr(-500), -500},
		{GoalGainMuscle, intPtr(-250), -250},
		{GoalLoseWeight, intPtr(0), 0},
	}

	for _, tt := range tests {
		if got := GoalAdjustment(tt.goal, tt.override); got != tt.want {
			t.Fatalf("goal %s override %v: expected %d, got %d", tt.goal, tt.override, tt.want, got)
		}
	}
}

func TestWeightTrendAdjustment(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		target  *float64
		want    int
	}{
		{"running heavy", []float64{80, 80.5, 79.5}, floatPtr(75), -200},
		{"running light", []float64{70, 71, 70.5}, floatPtr(75), 200},
		{"within band", []float64{75.9, 75.5, 76}, floatPtr(75), 0},
		{"exactly on threshold", []float64{76, 76, 76}, floatPtr(75), 0},
		{"too few samples", []float64{90, 90}, floatPtr(75), 0},
		{"no target", []float64{90, 90, 90}, nil, 0},
		{"empty", nil, floatPtr(75), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeightTrendAdjustment(tt.weights, tt.target); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCalculateMacroTargets(t *testing.T) {
	got := CalculateMacroTargets(2000, 30, 40, 30)
	if got.ProteinG != 150.0 || got.CarbsG != 200.0 || got.FatG != 66.7 {
		t.Fatalf("expected 150/200/66.7, got %.1f/%.1f/%.1f", got.ProteinG, got.CarbsG, got.FatG)
	}
}

func TestCalculateMacroTargetsKcalConsistency(t *testing.T) {
	splits := [][3]float64{
		{30, 40, 30},
		{35, 40, 25},
		{40, 35, 25},
		{20, 50, 30},
		{33.3, 33.3, 33.3},
		{60, 60, 60},
		{10, 20, 10},
		{100, 0, 0},
		{0, 0, 100},
	}

	for _, kcal := range []int{1000, 1507, 2000, 2226, 3333, 4500} {
		for _, s := range splits {
			m := CalculateMacroTargets(kcal, s[0], s[1], s[2])
			total := 4*m.ProteinG + 4*m.CarbsG + 9*m.FatG
			if math.Abs(total-float64(kcal)) > 5 {
				t.Fatalf("kcal %d split %v: macros add up to %.1f", kcal, s, total)
			}
		}
	}
}

func TestCalculateMacroTargetsZeroSplit(t *testing.T) {
	got := CalculateMacroTargets(2000, 0, 0, 0)
	if math.IsNaN(got.ProteinG) || math.IsNaN(got.CarbsG) || math.IsNaN(got.FatG) {
		t.Fatal("zero split must not produce NaN")
	}
	if got.ProteinG != 150.0 {
		t.Fatalf("expected default 30%% protein (150g), got %.1f", got.ProteinG)
	}
}

func TestActivityTargets(t *testing.T) {
	steps := map[string]int{
		ActivitySedentary:        6000,
		ActivityLightlyActive:    8000,
		ActivityModeratelyActive: 10000,
		ActivityVeryActive:       12000,
		ActivityExtremelyActive:  15000,
		"unknown":                10000,
	}
	for level, want := range steps {
		if got := StepTarget(level); got != want {
			t.Fatalf("steps for %s: expected %d, got %d", level, want, got)
		}
	}

	minutes := []struct {
		goal, level string
		want        int
	}{
		{GoalGainMuscle, ActivitySedentary, 45},
		{GoalLoseWeight, ActivityExtremelyActive, 45},
		{GoalMaintainWeight, ActivityVeryActive, 60},
		{GoalGainWeight, ActivityExtremelyActive, 60},
		{GoalMaintainWeight, ActivityModeratelyActive, 30},
	}
	for _, tt := range minutes {
		if got := WorkoutMinutesTarget(tt.goal, tt.level); got != tt.want {
			t.Fatalf("workout minutes for %s/%s: expected %d, got %d", tt.goal, tt.level, tt.want, got)
		}
	}
}

func demoProfile() storage.UserProfile {
	return storage.UserProfile{
		UserID:         "demo_user",
		Age:            28,
		Gender:         GenderMale,
		HeightCM:       175,
		ActivityLevel:  ActivityModeratelyActive,
		Goal:           GoalLoseWeight,
		TargetWeightKG: floatPtr(75),
		ProteinPercent: 35,
		CarbsPercent:   40,
		FatPercent:     25,
	}
}

func weightSeries(start time.Time, weights ...float64) []storage.HealthMetric {
	out := make([]storage.HealthMetric, 0, len(weights))
	for i, w := range weights {
		out = append(out, storage.HealthMetric{
			UserID:    "demo_user",
			Timestamp: start.AddDate(0, 0, i),
			Weight:    floatPtr(w),
		})
	}
	return out
}

func TestGenerateDailyPlan(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	engine := NewEngine(time.UTC).WithClock(func() time.Time { return now })

	metrics := weightSeries(now.AddDate(0, 0, -5), 80, 80, 80, 80, 80)
	plan := engine.GenerateDailyPlan("demo_user", demoProfile(), metrics, "")

	if plan.Date != "2024-03-11" {
		t.Fatalf("expected default date tomorrow 2024-03-11, got %s", plan.Date)
	}
	// BMR 1758.75, TDEE 2726.06, -300 goal, -200 trend
	if plan.TargetKcal != 2226 {
		t.Fatalf("expected target 2226, got %d", plan.TargetKcal)
	}
	if plan.TargetProteinG != 194.8 || plan.TargetCarbsG != 222.6 || plan.TargetFatG != 61.8 {
		t.Fatalf("unexpected macros %.1f/%.1f/%.1f", plan.TargetProteinG, plan.TargetCarbsG, plan.TargetFatG)
	}
	if plan.TargetSteps != 10000 || plan.TargetWorkoutMinutes != 45 {
		t.Fatalf("unexpected activity targets %d/%d", plan.TargetSteps, plan.TargetWorkoutMinutes)
	}

	wantReasoning := "BMR: 1759 kcal (Mifflin-St Jeor). TDEE: 2726 kcal (moderately_active). " +
		"Goal adjustment: -300 kcal (lose_weight). Weight trend adjustment: -200 kcal. Final target: 2226 kcal."
	if plan.PlanReasoning != wantReasoning {
		t.Fatalf("unexpected reasoning:\n got: %s\nwant: %s", plan.PlanReasoning, wantReasoning)
	}

	wantAdjustments := []string{"Goal-based: -300 kcal", "Weight trend: -200 kcal"}
	if len(plan.AdjustmentsMade) != len(wantAdjustments) {
		t.Fatalf("expected adjustments %v, got %v", wantAdjustments, plan.AdjustmentsMade)
	}
	for i := range wantAdjustments {
		if plan.AdjustmentsMade[i] != wantAdjustments[i] {
			t.Fatalf("expected adjustments %v, got %v", wantAdjustments, plan.AdjustmentsMade)
		}
	}
	if len(plan.SuggestedMeals) != 0 {
		t.Fatalf("engine must not attach meals, got %d", len(plan.SuggestedMeals))
	}
}

func TestGenerateDailyPlanNoAdjustmentsOmitsClauses(t *testing.T) {
	profile := demoProfile()
	profile.Goal = GoalMaintainWeight
	profile.TargetWeightKG = nil

	plan := NewEngine(nil).GenerateDailyPlan("u", profile, nil, "2024-01-01")

	if strings.Contains(plan.PlanReasoning, "Goal adjustment") || strings.Contains(plan.PlanReasoning, "Weight trend") {
		t.Fatalf("zero adjustments must not appear in reasoning: %s", plan.PlanReasoning)
	}
	if !strings.HasPrefix(plan.PlanReasoning, "BMR: ") || !strings.Contains(plan.PlanReasoning, "Final target: ") {
		t.Fatalf("reasoning missing required clauses: %s", plan.PlanReasoning)
	}
	if len(plan.AdjustmentsMade) != 0 {
		t.Fatalf("expected no adjustments, got %v", plan.AdjustmentsMade)
	}
	if plan.Date != "2024-01-01" {
		t.Fatalf("expected explicit date to be kept, got %s", plan.Date)
	}
}

func TestGenerateDailyPlanNeverBelowBMR(t *testing.T) {
	base := demoProfile()
	metrics := weightSeries(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), 120, 121, 122)

	for _, override := range []int{-300, -1500, -5000, -100000} {
		p := base
		p.TargetKcalDeficit = intPtr(override)
		calc := Calculate(p, metrics)
		if calc.TargetKcal < int(math.Round(calc.BMR)) {
			t.Fatalf("override %d: target %d below BMR %.2f", override, calc.TargetKcal, calc.BMR)
		}
	}

	p := base
	p.TargetKcalDeficit = intPtr(-100000)
	calc := Calculate(p, metrics)
	if calc.TargetKcal != int(math.Round(calc.BMR)) {
		t.Fatalf("expected target clamped to BMR %d, got %d", int(math.Round(calc.BMR)), calc.TargetKcal)
	}
}

func TestCalculateWeightFallbacks(t *testing.T) {
	profile := demoProfile()

	calc := Calculate(profile, nil)
	if calc.WeightSource != "target" || calc.WeightKG != 75 {
		t.Fatalf("expected target weight fallback, got %s/%.1f", calc.WeightSource, calc.WeightKG)
	}

	profile.TargetWeightKG = nil
	calc = Calculate(profile, []storage.HealthMetric{{Steps: intPtr(1000)}})
	if calc.WeightSource != "default" || calc.WeightKG != DefaultWeightKG {
		t.Fatalf("expected default weight, got %s/%.1f", calc.WeightSource, calc.WeightKG)
	}
}

func TestRecentWeightsOrderIndependent(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	ascending := weightSeries(start, 80, 81, 82, 83, 84, 85, 86, 87, 88)

	descending := make([]storage.HealthMetric, len(ascending))
	for i := range ascending {
		descending[len(ascending)-1-i] = ascending[i]
	}

	for _, input := range [][]storage.HealthMetric{ascending, descending} {
		got := RecentWeights(input)
		if len(got) != 7 {
			t.Fatalf("expected 7 weights, got %d", len(got))
		}
		if got[0] != 82 || got[6] != 88 {
			t.Fatalf("expected chronological tail 82..88, got %v", got)
		}
	}

	if descending[0].Weight == nil || *descending[0].Weight != 88 {
		t.Fatal("caller slice must not be reordered")
	}
}
