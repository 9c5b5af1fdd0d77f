// Package seed fills a storage with deterministic demo users and history.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/fdg312/macro-coach/internal/planner"
	"github.com/fdg312/macro-coach/internal/plans"
	"github.com/fdg312/macro-coach/internal/storage"
)

const (
	DefaultDays = 14
	DefaultSeed = 42

	sourceDemo        = "demo"
	minDailyKcal      = 1200.0
	minWeightKG       = 40.0
	maxWeightKG       = 120.0
	mealLoggingChance = 0.4
)

type Logger interface {
	Printf(format string, v ...any)
}

type Options struct {
	Days int
	Seed int64
	Now  time.Time
	Loc  *time.Location
}

type Result struct {
	Users   []string
	Metrics int
	Plans   int
}

func (o Options) withDefaults() Options {
	if o.Days <= 0 {
		o.Days = DefaultDays
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Loc == nil {
		o.Loc = time.UTC
	}
	return o
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

// DemoProfiles: два демо-пользователя: худеющий и набирающий массу.
func DemoProfiles() []storage.UserProfile {
	return []storage.UserProfile{
		{
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
			DietaryRestrictions:  []string{},
			Allergies:            []string{},
			PreferTurkishCuisine: true,
		},
		{
			UserID:               "fitness_enthusiast",
			Age:                  25,
			Gender:               planner.GenderFemale,
			HeightCM:             165,
			ActivityLevel:        planner.ActivityVeryActive,
			Goal:                 planner.GoalGainMuscle,
			TargetWeightKG:       floatPtr(60),
			ProteinPercent:       40,
			CarbsPercent:         35,
			FatPercent:           25,
			DietaryRestrictions:  []string{"vegetarian"},
			Allergies:            []string{"nuts"},
			PreferTurkishCuisine: false,
		},
	}
}

// Run сохраняет профили, историю метрик и (если planService != nil) план на завтра.
func Run(ctx context.Context, st storage.Storage, planService *plans.Service, opts Options, logger Logger) (*Result, error) {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))
	result := &Result{}

	for _, profile := range DemoProfiles() {
		p := profile
		if err := st.UpsertProfile(ctx, &p); err != nil {
			return nil, fmt.Errorf("seed profile %s: %w", p.UserID, err)
		}

		history := GenerateMetrics(p, opts, rng)
		if err := st.InsertMetrics(ctx, history); err != nil {
			return nil, fmt.Errorf("seed metrics %s: %w", p.UserID, err)
		}
		result.Users = append(result.Users, p.UserID)
		result.Metrics += len(history)
		logf(logger, "INFO seed: user=%s metrics=%d days=%d", p.UserID, len(history), opts.Days)
	}

	if planService == nil {
		return result, nil
	}
	for _, userID := range result.Users {
		plan, err := planService.Generate(ctx, userID, "", nil)
		if err != nil {
			return nil, fmt.Errorf("seed plan %s: %w", userID, err)
		}
		result.Plans++
		logf(logger, "INFO seed: user=%s plan=%s target_kcal=%d", userID, plan.Date, plan.TargetKcal)
	}
	return result, nil
}

// GenerateMetrics строит opts.Days дней истории, заканчивая вчерашним днём.
// В дни с детальным логированием еды питание пишется по приёмам пищи,
// а не в дневную запись, чтобы ккал не считались дважды.
func GenerateMetrics(profile storage.UserProfile, opts Options, rng *rand.Rand) []storage.HealthMetric {
	opts = opts.withDefaults()

	start := opts.Now.In(opts.Loc).AddDate(0, 0, -opts.Days)
	baseDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, opts.Loc)

	weight := planner.DefaultWeightKG
	if profile.TargetWeightKG != nil {
		weight = *profile.TargetWeightKG
	}
	weight += uniform(rng, -3, 3)

	out := make([]storage.HealthMetric, 0, opts.Days*3)
	for day := 0; day < opts.Days; day++ {
		date := baseDay.AddDate(0, 0, day)

		weight = math.Max(minWeightKG, math.Min(maxWeightKG, weight+weightDrift(rng, profile.Goal)))

		bmr := planner.CalculateBMR(weight, profile.HeightCM, profile.Age, profile.Gender)
		tdee := planner.CalculateTDEE(bmr, profile.ActivityLevel)
		target := tdee + float64(planner.GoalAdjustment(profile.Goal, nil))
		kcal := math.Max(minDailyKcal, target+uniform(rng, -200, 200))

		protein := kcal * profile.ProteinPercent / 100 / 4
		carbs := kcal * profile.CarbsPercent / 100 / 4
		fat := kcal * profile.FatPercent / 100 / 9

		daily := storage.HealthMetric{
			UserID:     profile.UserID,
			Timestamp:  at(date, 12),
			Source:     sourceDemo,
			Confidence: 0.9,
			Weight:     floatPtr(planner.Round1(weight)),
			Steps:      intPtr(dailySteps(rng, profile.ActivityLevel)),
			KcalOut:    floatPtr(math.Round(tdee + uniform(rng, -100, 100))),
			HeartRate:  intPtr(between(rng, 60, 80)),
			SleepScore: intPtr(between(rng, 65, 95)),
		}

		workoutChance := 0.3
		if profile.ActivityLevel == planner.ActivityVeryActive || profile.ActivityLevel == planner.ActivityExtremelyActive {
			workoutChance = 0.6
		}
		var workout *storage.HealthMetric
		if rng.Float64() < workoutChance {
			types := workoutTypes(profile.Goal)
			workout = &storage.HealthMetric{
				UserID:                 profile.UserID,
				Timestamp:              at(date, 18),
				Source:                 sourceDemo,
				Confidence:             0.95,
				WorkoutType:            strPtr(types[rng.Intn(len(types))]),
				WorkoutDurationMinutes: intPtr(between(rng, 30, 90)),
				HeartRate:              intPtr(between(rng, 120, 170)),
				KcalOut:                floatPtr(float64(between(rng, 200, 600))),
				RPE:                    intPtr(between(rng, 4, 9)),
			}
		}

		if rng.Float64() < mealLoggingChance {
			out = append(out, daily)
			for _, meal := range []struct {
				name  string
				hour  int
				ratio float64
			}{
				{"breakfast", 8, 0.25},
				{"lunch", 13, 0.35},
				{"dinner", 19, 0.40},
			} {
				out = append(out, storage.HealthMetric{
					UserID:     profile.UserID,
					Timestamp:  at(date, meal.hour),
					Source:     sourceDemo + "_" + meal.name,
					Confidence: 0.8,
					KcalIn:     floatPtr(math.Round(kcal * meal.ratio)),
					ProteinG:   floatPtr(planner.Round1(protein * meal.ratio)),
					CarbsG:     floatPtr(planner.Round1(carbs * meal.ratio)),
					FatG:       floatPtr(planner.Round1(fat * meal.ratio)),
				})
			}
		} else {
			daily.KcalIn = floatPtr(math.Round(kcal))
			daily.ProteinG = floatPtr(planner.Round1(protein))
			daily.CarbsG = floatPtr(planner.Round1(carbs))
			daily.FatG = floatPtr(planner.Round1(fat))
			out = append(out, daily)
		}

		if workout != nil {
			out = append(out, *workout)
		}
	}
	return out
}

func weightDrift(rng *rand.Rand, goal string) float64 {
	switch goal {
	case planner.GoalLoseWeight:
		return -0.1 + uniform(rng, -0.2, 0.1)
	case planner.GoalGainWeight, planner.GoalGainMuscle:
		return 0.1 + uniform(rng, -0.1, 0.2)
	default:
		return uniform(rng, -0.15, 0.15)
	}
}

func dailySteps(rng *rand.Rand, activity string) int {
	base := 10000
	switch activity {
	case planner.ActivitySedentary:
		base = 7000
	case planner.ActivityVeryActive:
		base = 14000
	}
	steps := base + between(rng, -2000, 3000)
	if steps < 2000 {
		steps = 2000
	}
	return steps
}

func workoutTypes(goal string) []string {
	switch goal {
	case planner.GoalGainMuscle:
		return []string{storage.WorkoutStrength, storage.WorkoutStrength, storage.WorkoutCardio}
	case planner.GoalLoseWeight:
		return []string{storage.WorkoutCardio, storage.WorkoutCardio, storage.WorkoutStrength}
	default:
		return []string{storage.WorkoutWalking, storage.WorkoutCardio, storage.WorkoutStrength}
	}
}

func at(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location()).UTC()
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// between: целое из [lo, hi] включительно
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
