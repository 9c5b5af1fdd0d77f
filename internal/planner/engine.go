package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

// DateLayout is the calendar date format used by plans.
const DateLayout = "2006-01-02"

// weightWindow: how many of the most recent metrics are inspected for weight.
const weightWindow = 7

// Engine builds DailyPlans. now and loc only matter for the default target date.
type Engine struct {
	now func() time.Time
	loc *time.Location
}

// NewEngine: движок в часовом поясе дня loc (nil значит UTC).
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{now: time.Now, loc: loc}
}

// WithClock overrides the wall clock (tests, CLI replays).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Tomorrow returns tomorrow's date in the engine location.
func (e *Engine) Tomorrow() string {
	return e.now().In(e.loc).AddDate(0, 0, 1).Format(DateLayout)
}

// RecentWeights extracts weights from the last 7 metrics in chronological order.
// Input order does not matter: a sorted copy is used, the caller's slice is untouched.
func RecentWeights(metrics []storage.HealthMetric) []float64 {
	if len(metrics) == 0 {
		return nil
	}

	sorted := make([]storage.HealthMetric, len(metrics))
	copy(sorted, metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if len(sorted) > weightWindow {
		sorted = sorted[len(sorted)-weightWindow:]
	}

	weights := make([]float64, 0, len(sorted))
	for _, m := range sorted {
		if m.Weight != nil {
			weights = append(weights, *m.Weight)
		}
	}
	return weights
}

// Calculation is the full derivation behind a plan, kept for CLI/debug output.
type Calculation struct {
	WeightKG        float64
	WeightSource    string // observed | target | default
	BMR             float64
	TDEE            float64
	GoalAdjustment  int
	TrendAdjustment int
	TargetKcal      int
	Macros          MacroTargets
	TargetSteps     int
	WorkoutMinutes  int
	Reasoning       string
	AdjustmentsMade []string
}

// Calculate runs every step of the derivation without building the plan record.
func Calculate(profile storage.UserProfile, recentMetrics []storage.HealthMetric) Calculation {
	weights := RecentWeights(recentMetrics)

	calc := Calculation{WeightKG: DefaultWeightKG, WeightSource: "default"}
	switch {
	case len(weights) > 0:
		calc.WeightKG = weights[len(weights)-1]
		calc.WeightSource = "observed"
	case profile.TargetWeightKG != nil:
		calc.WeightKG = *profile.TargetWeightKG
		calc.WeightSource = "target"
	}

	calc.BMR = CalculateBMR(calc.WeightKG, profile.HeightCM, profile.Age, profile.Gender)
	calc.TDEE = CalculateTDEE(calc.BMR, profile.ActivityLevel)
	calc.GoalAdjustment = GoalAdjustment(profile.Goal, profile.TargetKcalDeficit)
	calc.TrendAdjustment = WeightTrendAdjustment(weights, profile.TargetWeightKG)

	target := int(math.Round(calc.TDEE + float64(calc.GoalAdjustment) + float64(calc.TrendAdjustment)))
	// никогда не ниже BMR
	if floor := int(math.Round(calc.BMR)); target < floor {
		target = floor
	}
	calc.TargetKcal = target

	calc.Macros = CalculateMacroTargets(target, profile.ProteinPercent, profile.CarbsPercent, profile.FatPercent)
	calc.TargetSteps = StepTarget(profile.ActivityLevel)
	calc.WorkoutMinutes = WorkoutMinutesTarget(profile.Goal, profile.ActivityLevel)
	calc.Reasoning, calc.AdjustmentsMade = reasoning(calc, profile)
	return calc
}

func reasoning(calc Calculation, profile storage.UserProfile) (string, []string) {
	activity := profile.ActivityLevel
	if activity == "" {
		activity = ActivityLightlyActive
	}

	parts := []string{
		fmt.Sprintf("BMR: %d kcal (Mifflin-St Jeor)", int(math.Round(calc.BMR))),
		fmt.Sprintf("TDEE: %d kcal (%s)", int(math.Round(calc.TDEE)), activity),
	}
	adjustments := make([]string, 0, 2)

	if calc.GoalAdjustment != 0 {
		parts = append(parts, fmt.Sprintf("Goal adjustment: %+d kcal (%s)", calc.GoalAdjustment, profile.Goal))
		adjustments = append(adjustments, fmt.Sprintf("Goal-based: %+d kcal", calc.GoalAdjustment))
	}
	if calc.TrendAdjustment != 0 {
		parts = append(parts, fmt.Sprintf("Weight trend adjustment: %+d kcal", calc.TrendAdjustment))
		adjustments = append(adjustments, fmt.Sprintf("Weight trend: %+d kcal", calc.TrendAdjustment))
	}

	return strings.Join(parts, ". ") + fmt.Sprintf(". Final target: %d kcal.", calc.TargetKcal), adjustments
}

// GenerateDailyPlan builds the plan for date (YYYY-MM-DD, empty means tomorrow).
// SuggestedMeals is left empty; meals are attached by the meal generator.
// The caller must reject users without a profile before calling this.
func (e *Engine) GenerateDailyPlan(userID string, profile storage.UserProfile, recentMetrics []storage.HealthMetric, date string) storage.DailyPlan {
	if date == "" {
		date = e.Tomorrow()
	}

	calc := Calculate(profile, recentMetrics)

	return storage.DailyPlan{
		UserID:               userID,
		Date:                 date,
		TargetKcal:           calc.TargetKcal,
		TargetProteinG:       calc.Macros.ProteinG,
		TargetCarbsG:         calc.Macros.CarbsG,
		TargetFatG:           calc.Macros.FatG,
		TargetSteps:          calc.TargetSteps,
		TargetWorkoutMinutes: calc.WorkoutMinutes,
		SuggestedMeals:       []storage.Meal{},
		PlanReasoning:        calc.Reasoning,
		AdjustmentsMade:      calc.AdjustmentsMade,
		CreatedAt:            e.now().UTC(),
	}
}
