// Package progress summarizes a window of health metrics into per-day buckets and trend statistics.
package progress

import (
	"math"
	"sort"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

const (
	TrendStable     = "stable"
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

const (
	trendThresholdKG  = 0.5
	minTrendBuckets   = 3
	minChangeBuckets  = 2
	DefaultWindowDays = 7
)

// NoDataMessage is carried by the empty-input sentinel report.
const NoDataMessage = "No recent metrics available"

// Day is one calendar-date bucket.
type Day struct {
	Date     string   `json:"date"`
	KcalIn   float64  `json:"kcal_in"`
	KcalOut  float64  `json:"kcal_out"`
	ProteinG float64  `json:"protein_g"`
	Steps    int      `json:"steps"`
	Weight   *float64 `json:"weight,omitempty"`
	Workouts int      `json:"workouts"`
}

// Report: multi-day progress. NoData=true means the input was empty and all
// numeric fields must be ignored.
type Report struct {
	NoData         bool     `json:"no_data,omitempty"`
	Error          string   `json:"error,omitempty"`
	WindowDays     int      `json:"window_days"`
	PeriodDays     int      `json:"period_days"`
	AvgKcalIn      int      `json:"avg_kcal_in"`
	AvgSteps       int      `json:"avg_steps"`
	AvgProteinG    float64  `json:"avg_protein_g"`
	WeightTrend    string   `json:"weight_trend"`
	WeightChangeKG *float64 `json:"weight_change_kg"`
	WorkoutDays    int      `json:"workout_days"`
	TotalDays      int      `json:"total_days"`
	Days           []Day    `json:"days,omitempty"`
}

// Analyze buckets metrics by calendar date in loc. Only dates that actually have
// rows produce buckets, so averages are over reporting days, not windowDays.
//
// Metrics are processed in chronological order regardless of input order; within
// a day the latest weight wins.
func Analyze(metrics []storage.HealthMetric, windowDays int, loc *time.Location) Report {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if len(metrics) == 0 {
		return Report{NoData: true, Error: NoDataMessage, WindowDays: windowDays, WeightTrend: TrendStable}
	}
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]storage.HealthMetric, len(metrics))
	copy(sorted, metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	buckets := make(map[string]*Day)
	order := make([]string, 0)
	for _, m := range sorted {
		date := m.Timestamp.In(loc).Format("2006-01-02")
		day, ok := buckets[date]
		if !ok {
			day = &Day{Date: date}
			buckets[date] = day
			order = append(order, date)
		}

		if m.KcalIn != nil {
			day.KcalIn += *m.KcalIn
		}
		if m.KcalOut != nil {
			day.KcalOut += *m.KcalOut
		}
		if m.ProteinG != nil {
			day.ProteinG += *m.ProteinG
		}
		if m.Steps != nil && *m.Steps > day.Steps {
			day.Steps = *m.Steps
		}
		if m.Weight != nil {
			w := *m.Weight
			day.Weight = &w
		}
		if m.WorkoutType != nil {
			day.Workouts++
		}
	}

	report := Report{WindowDays: windowDays, WeightTrend: TrendStable}
	report.Days = make([]Day, 0, len(order))

	var sumKcal, sumSteps, sumProtein float64
	weights := make([]float64, 0, len(order))
	for _, date := range order {
		day := buckets[date]
		report.Days = append(report.Days, *day)

		sumKcal += day.KcalIn
		sumSteps += float64(day.Steps)
		sumProtein += day.ProteinG
		if day.Weight != nil {
			weights = append(weights, *day.Weight)
		}
		if day.Workouts > 0 {
			report.WorkoutDays++
		}
	}

	n := float64(len(order))
	report.TotalDays = len(order)
	report.PeriodDays = len(order)
	report.AvgKcalIn = int(math.Round(sumKcal / n))
	report.AvgSteps = int(math.Round(sumSteps / n))
	report.AvgProteinG = math.Round(sumProtein/n*10) / 10

	if len(weights) >= minChangeBuckets {
		change := math.Round((weights[len(weights)-1]-weights[0])*10) / 10
		report.WeightChangeKG = &change
	}
	if len(weights) >= minTrendBuckets {
		diff := weights[len(weights)-1] - weights[0]
		switch {
		case diff > trendThresholdKG:
			report.WeightTrend = TrendIncreasing
		case diff < -trendThresholdKG:
			report.WeightTrend = TrendDecreasing
		}
	}

	return report
}
