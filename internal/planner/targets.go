// Package planner turns a user profile and recent weight history into daily energy and macro targets.
//
// Everything here is pure: no storage access, no logging. Missing optional inputs
// are replaced by documented fallbacks instead of errors.
package planner

import "math"

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

const (
	ActivitySedentary        = "sedentary"
	ActivityLightlyActive    = "lightly_active"
	ActivityModeratelyActive = "moderately_active"
	ActivityVeryActive       = "very_active"
	ActivityExtremelyActive  = "extremely_active"
)

const (
	GoalLoseWeight     = "lose_weight"
	GoalMaintainWeight = "maintain_weight"
	GoalGainWeight     = "gain_weight"
	GoalGainMuscle     = "gain_muscle"
)

// MinBMR is the hard floor for basal rate regardless of inputs.
const MinBMR = 1000.0

// DefaultWeightKG is used when neither history nor profile target carry a weight.
const DefaultWeightKG = 70.0

// activityMultipliers maps activity level to TDEE multiplier.
// Also the source of truth for valid activity levels (see IsValidActivityLevel).
var activityMultipliers = map[string]float64{
	ActivitySedentary:        1.2,
	ActivityLightlyActive:    1.375,
	ActivityModeratelyActive: 1.55,
	ActivityVeryActive:       1.725,
	ActivityExtremelyActive:  1.9,
}

var stepTargets = map[string]int{
	ActivitySedentary:        6000,
	ActivityLightlyActive:    8000,
	ActivityModeratelyActive: 10000,
	ActivityVeryActive:       12000,
	ActivityExtremelyActive:  15000,
}

const (
	defaultMultiplier  = 1.375
	defaultStepTarget  = 10000
	goalDeficitKcal    = -300
	goalSurplusKcal    = 300
	trendThresholdKG   = 1.0
	trendAdjustKcal    = 200
	minTrendSamples    = 3
	macroSumTolerance  = 0.1
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

func IsValidActivityLevel(level string) bool {
	_, ok := activityMultipliers[level]
	return ok
}

func IsValidGoal(goal string) bool {
	switch goal {
	case GoalLoseWeight, GoalMaintainWeight, GoalGainWeight, GoalGainMuscle:
		return true
	}
	return false
}

func IsValidGender(gender string) bool {
	return gender == GenderMale || gender == GenderFemale || gender == GenderOther
}

// CalculateBMR: Mifflin-St Jeor. "female" and "other" share the -161 branch.
func CalculateBMR(weightKG, heightCM float64, age int, gender string) float64 {
	bmr := 10*weightKG + 6.25*heightCM - 5*float64(age)
	if gender == GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return math.Max(bmr, MinBMR)
}

// ActivityMultiplier returns the TDEE factor; unknown levels count as lightly active.
func ActivityMultiplier(level string) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return defaultMultiplier
}

func CalculateTDEE(bmr float64, activityLevel string) float64 {
	return bmr * ActivityMultiplier(activityLevel)
}

// GoalAdjustment returns the kcal delta for the goal. An explicit override
// (negative = deficit, positive = surplus) always wins over the goal default.
func GoalAdjustment(goal string, override *int) int {
	if override != nil {
		return *override
	}
	switch goal {
	case GoalLoseWeight:
		return goalDeficitKcal
	case GoalGainWeight, GoalGainMuscle:
		return goalSurplusKcal
	default:
		return 0
	}
}

// WeightTrendAdjustment compares the mean of recent weights to the target.
// Needs at least 3 readings and a target, otherwise 0.
func WeightTrendAdjustment(weights []float64, targetWeightKG *float64) int {
	if len(weights) < minTrendSamples || targetWeightKG == nil {
		return 0
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	mean := sum / float64(len(weights))

	switch {
	case mean > *targetWeightKG+trendThresholdKG:
		return -trendAdjustKcal
	case mean < *targetWeightKG-trendThresholdKG:
		return trendAdjustKcal
	default:
		return 0
	}
}

// MacroTargets: grams per day.
type MacroTargets struct {
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

// NormalizeSplit rescales the three percentages to sum to 100 when they drift
// by more than 0.1. A non-positive total falls back to 30/40/30.
func NormalizeSplit(protein, carbs, fat float64) (float64, float64, float64) {
	protein, carbs, fat = math.Max(protein, 0), math.Max(carbs, 0), math.Max(fat, 0)
	total := protein + carbs + fat
	if total <= 0 {
		return 30, 40, 30
	}
	if math.Abs(total-100) > macroSumTolerance {
		protein = protein / total * 100
		carbs = carbs / total * 100
		fat = fat / total * 100
	}
	return protein, carbs, fat
}

// CalculateMacroTargets converts a kcal target into grams using Atwater factors 4/4/9.
func CalculateMacroTargets(targetKcal int, proteinPct, carbsPct, fatPct float64) MacroTargets {
	proteinPct, carbsPct, fatPct = NormalizeSplit(proteinPct, carbsPct, fatPct)
	kcal := float64(targetKcal)
	return MacroTargets{
		ProteinG: Round1(kcal * proteinPct / 100 / kcalPerGramProtein),
		CarbsG:   Round1(kcal * carbsPct / 100 / kcalPerGramCarbs),
		FatG:     Round1(kcal * fatPct / 100 / kcalPerGramFat),
	}
}

// StepTarget by activity level, 10000 for unknown levels.
func StepTarget(activityLevel string) int {
	if s, ok := stepTargets[activityLevel]; ok {
		return s
	}
	return defaultStepTarget
}

// WorkoutMinutesTarget: goal-driven first, then activity-driven.
func WorkoutMinutesTarget(goal, activityLevel string) int {
	if goal == GoalGainMuscle || goal == GoalLoseWeight {
		return 45
	}
	if activityLevel == ActivityVeryActive || activityLevel == ActivityExtremelyActive {
		return 60
	}
	return 30
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
