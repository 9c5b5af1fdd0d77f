package metrics

import (
	"time"

	"github.com/google/uuid"
)

// MetricDTO: наблюдение в API. Отсутствующие показания не сериализуются.
type MetricDTO struct {
	ID                     uuid.UUID `json:"id"`
	UserID                 string    `json:"user_id"`
	Timestamp              time.Time `json:"timestamp"`
	KcalOut                *float64  `json:"kcal_out,omitempty"`
	HeartRate              *int      `json:"heart_rate,omitempty"`
	Steps                  *int      `json:"steps,omitempty"`
	SleepScore             *int      `json:"sleep_score,omitempty"`
	Weight                 *float64  `json:"weight,omitempty"`
	ProteinG               *float64  `json:"protein_g,omitempty"`
	CarbsG                 *float64  `json:"carbs_g,omitempty"`
	FatG                   *float64  `json:"fat_g,omitempty"`
	KcalIn                 *float64  `json:"kcal_in,omitempty"`
	WorkoutType            *string   `json:"workout_type,omitempty"`
	RPE                    *int      `json:"rpe,omitempty"`
	WorkoutDurationMinutes *int      `json:"workout_duration_minutes,omitempty"`
	Source                 string    `json:"source,omitempty"`
	Confidence             float64   `json:"confidence"`
	CreatedAt              time.Time `json:"created_at"`
}

// CreateMetricRequest: одно наблюдение в POST /v1/users/{user_id}/metrics.
// Timestamp обязателен, всё остальное опционально.
type CreateMetricRequest struct {
	Timestamp              *time.Time `json:"timestamp"`
	KcalOut                *float64   `json:"kcal_out,omitempty"`
	HeartRate              *int       `json:"heart_rate,omitempty"`
	Steps                  *int       `json:"steps,omitempty"`
	SleepScore             *int       `json:"sleep_score,omitempty"`
	Weight                 *float64   `json:"weight,omitempty"`
	ProteinG               *float64   `json:"protein_g,omitempty"`
	CarbsG                 *float64   `json:"carbs_g,omitempty"`
	FatG                   *float64   `json:"fat_g,omitempty"`
	KcalIn                 *float64   `json:"kcal_in,omitempty"`
	WorkoutType            *string    `json:"workout_type,omitempty"`
	RPE                    *int       `json:"rpe,omitempty"`
	WorkoutDurationMinutes *int       `json:"workout_duration_minutes,omitempty"`
	Source                 string     `json:"source,omitempty"`
	Confidence             *float64   `json:"confidence,omitempty"`
}

// CreateMetricsBody accepts either a single metric or {"metrics":[...]}.
type CreateMetricsBody struct {
	CreateMetricRequest
	Metrics []CreateMetricRequest `json:"metrics,omitempty"`
}

type MetricsResponse struct {
	Metrics []MetricDTO `json:"metrics"`
}

// CreateMetricsResponse: ответ на запись наблюдений
type CreateMetricsResponse struct {
	Status   string      `json:"status"`
	Inserted int         `json:"inserted"`
	Metrics  []MetricDTO `json:"metrics"`
}

// WorkoutDTO: тренировка внутри дневной сводки.
type WorkoutDTO struct {
	Timestamp       time.Time `json:"timestamp"`
	WorkoutType     string    `json:"workout_type"`
	RPE             *int      `json:"rpe,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	KcalOut         *float64  `json:"kcal_out,omitempty"`
}

// DailySummary: агрегат всех наблюдений за календарный день.
// При TotalMetrics == 0 заполнены только Date и TotalMetrics: nil означает "нет данных".
type DailySummary struct {
	Date         string       `json:"date"`
	TotalMetrics int          `json:"total_metrics"`
	KcalIn       *float64     `json:"kcal_in,omitempty"`
	KcalOut      *float64     `json:"kcal_out,omitempty"`
	KcalBalance  *float64     `json:"kcal_balance,omitempty"`
	ProteinG     *float64     `json:"protein_g,omitempty"`
	CarbsG       *float64     `json:"carbs_g,omitempty"`
	FatG         *float64     `json:"fat_g,omitempty"`
	Steps        *int         `json:"steps,omitempty"`
	Weight       *float64     `json:"weight,omitempty"`
	Workouts     []WorkoutDTO `json:"workouts,omitempty"`
}

// HasData reports whether any metric fell into the day.
func (s DailySummary) HasData() bool {
	return s.TotalMetrics > 0
}

// ErrorResponse: формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
