package metrics

import (
	"fmt"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

const dateLayout = "2006-01-02"

// DayWindow returns the closed interval [date 00:00:00, next day 00:00:00 - 1µs] in loc.
// The microsecond gap keeps a row stamped at next midnight out of this day.
func DayWindow(date string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}
	return day, day.AddDate(0, 0, 1).Add(-time.Microsecond), nil
}

// Summarize aggregates one day of metrics. Input is expected newest first,
// as returned by storage; weight is taken from the newest row that has one.
func Summarize(date string, metrics []storage.HealthMetric) DailySummary {
	summary := DailySummary{Date: date, TotalMetrics: len(metrics)}
	if len(metrics) == 0 {
		return summary
	}

	var kcalIn, kcalOut, protein, carbs, fat float64
	steps := 0
	workouts := make([]WorkoutDTO, 0)

	for _, m := range metrics {
		if m.KcalIn != nil {
			kcalIn += *m.KcalIn
		}
		if m.KcalOut != nil {
			kcalOut += *m.KcalOut
		}
		if m.ProteinG != nil {
			protein += *m.ProteinG
		}
		if m.CarbsG != nil {
			carbs += *m.CarbsG
		}
		if m.FatG != nil {
			fat += *m.FatG
		}
		// шаги: накопительный счётчик, берём максимум, а не сумму
		if m.Steps != nil && *m.Steps > steps {
			steps = *m.Steps
		}
		if summary.Weight == nil && m.Weight != nil {
			w := *m.Weight
			summary.Weight = &w
		}
		if m.WorkoutType != nil {
			workouts = append(workouts, WorkoutDTO{
				Timestamp:       m.Timestamp,
				WorkoutType:     *m.WorkoutType,
				RPE:             m.RPE,
				DurationMinutes: m.WorkoutDurationMinutes,
				KcalOut:         m.KcalOut,
			})
		}
	}

	balance := kcalIn - kcalOut
	summary.KcalIn = &kcalIn
	summary.KcalOut = &kcalOut
	summary.KcalBalance = &balance
	summary.ProteinG = &protein
	summary.CarbsG = &carbs
	summary.FatG = &fat
	summary.Steps = &steps
	summary.Workouts = workouts
	return summary
}
