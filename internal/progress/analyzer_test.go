package progress

import (
	"testing"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
func s(v string) *string   { return &v }

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return day0.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

func TestAnalyzeEmptyReturnsNoData(t *testing.T) {
	report := Analyze(nil, 7, time.UTC)
	if !report.NoData {
		t.Fatal("expected NoData sentinel for empty metrics")
	}
	if report.Error != NoDataMessage {
		t.Fatalf("expected error message %q, got %q", NoDataMessage, report.Error)
	}
	if report.TotalDays != 0 || report.WeightChangeKG != nil {
		t.Fatalf("unexpected numeric fields in sentinel: %+v", report)
	}
}

func TestAnalyzeBucketsAndAverages(t *testing.T) {
	metrics := []storage.HealthMetric{
		{Timestamp: at(0, 8), KcalIn: f(500), ProteinG: f(30), Steps: i(3000), Weight: f(80)},
		{Timestamp: at(0, 13), KcalIn: f(700), ProteinG: f(40), Steps: i(6000)},
		{Timestamp: at(0, 19), KcalIn: f(600), ProteinG: f(35), Steps: i(5000), WorkoutType: s("strength")},
		{Timestamp: at(2, 9), KcalIn: f(2000), ProteinG: f(100), Steps: i(10000), Weight: f(79.2)},
	}

	report := Analyze(metrics, 7, time.UTC)
	if report.NoData {
		t.Fatal("unexpected NoData")
	}
	if report.TotalDays != 2 {
		t.Fatalf("expected 2 reporting days (sparse days absent), got %d", report.TotalDays)
	}
	if report.AvgKcalIn != 1900 {
		t.Fatalf("expected avg kcal 1900, got %d", report.AvgKcalIn)
	}
	if report.AvgSteps != 8000 {
		t.Fatalf("expected avg steps 8000 (max per day), got %d", report.AvgSteps)
	}
	if report.AvgProteinG != 102.5 {
		t.Fatalf("expected avg protein 102.5, got %.1f", report.AvgProteinG)
	}
	if report.WorkoutDays != 1 {
		t.Fatalf("expected 1 workout day, got %d", report.WorkoutDays)
	}
	if report.WeightChangeKG == nil || *report.WeightChangeKG != -0.8 {
		t.Fatalf("expected weight change -0.8, got %v", report.WeightChangeKG)
	}
	if report.WeightTrend != TrendStable {
		t.Fatalf("two weighted days are not enough for a trend, got %s", report.WeightTrend)
	}
	if len(report.Days) != 2 || report.Days[0].Date != "2024-03-01" || report.Days[0].KcalIn != 1800 {
		t.Fatalf("unexpected day buckets: %+v", report.Days)
	}
}

func TestAnalyzeWeightTrend(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    string
	}{
		{"decreasing", []float64{82, 81.5, 80.9}, TrendDecreasing},
		{"increasing", []float64{60, 60.4, 61}, TrendIncreasing},
		{"stable within band", []float64{70, 70.3, 70.5}, TrendStable},
		{"too few buckets", []float64{90, 80}, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := make([]storage.HealthMetric, 0, len(tt.weights))
			for d, w := range tt.weights {
				metrics = append(metrics, storage.HealthMetric{Timestamp: at(d, 7), Weight: f(w)})
			}
			if got := Analyze(metrics, 7, time.UTC).WeightTrend; got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAnalyzeInputOrderIndependent(t *testing.T) {
	newestFirst := []storage.HealthMetric{
		{Timestamp: at(3, 7), Weight: f(78)},
		{Timestamp: at(2, 7), Weight: f(79)},
		{Timestamp: at(1, 20), Weight: f(80)},
		{Timestamp: at(1, 7), Weight: f(81)},
		{Timestamp: at(0, 7), Weight: f(82)},
	}

	report := Analyze(newestFirst, 7, time.UTC)
	if report.WeightTrend != TrendDecreasing {
		t.Fatalf("expected decreasing trend, got %s", report.WeightTrend)
	}
	if *report.WeightChangeKG != -4 {
		t.Fatalf("expected -4.0 change, got %.1f", *report.WeightChangeKG)
	}
	// внутри дня побеждает более позднее взвешивание
	if report.Days[1].Weight == nil || *report.Days[1].Weight != 80 {
		t.Fatalf("expected latest same-day weight 80, got %v", report.Days[1].Weight)
	}
}

func TestAnalyzeUsesLocationForBuckets(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	metrics := []storage.HealthMetric{
		{Timestamp: time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC), KcalIn: f(100)},
		{Timestamp: time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC), KcalIn: f(100)},
	}

	if got := Analyze(metrics, 7, time.UTC).TotalDays; got != 2 {
		t.Fatalf("expected 2 UTC days, got %d", got)
	}
	if got := Analyze(metrics, 7, loc).TotalDays; got != 1 {
		t.Fatalf("expected 1 local day, got %d", got)
	}
}
