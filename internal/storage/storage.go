package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound: запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrNotInitialized: хранилище не инициализировано или уже закрыто.
	// Отличается от "нет данных": вызывающий код должен считать это фатальной ошибкой настройки.
	ErrNotInitialized = errors.New("storage not initialized")
)

// Workout types accepted in HealthMetric.WorkoutType.
const (
	WorkoutStrength = "strength"
	WorkoutCardio   = "cardio"
	WorkoutYoga     = "yoga"
	WorkoutWalking  = "walking"
	WorkoutRunning  = "running"
	WorkoutCycling  = "cycling"
	WorkoutSwimming = "swimming"
	WorkoutOther    = "other"
)

// HealthMetric: одно нормализованное наблюдение. Все показания опциональны:
// nil означает "нет данных", а не ноль.
type HealthMetric struct {
	ID                     uuid.UUID
	UserID                 string
	Timestamp              time.Time
	KcalOut                *float64
	HeartRate              *int
	Steps                  *int
	SleepScore             *int
	Weight                 *float64
	ProteinG               *float64
	CarbsG                 *float64
	FatG                   *float64
	KcalIn                 *float64
	WorkoutType            *string
	RPE                    *int
	WorkoutDurationMinutes *int
	Source                 string
	Confidence             float64
	CreatedAt              time.Time
}

// MetricQuery задаёт выборку метрик. Границы включительные, nil: без ограничения.
// Limit <= 0 означает без лимита.
type MetricQuery struct {
	UserID string
	Start  *time.Time
	End    *time.Time
	Limit  int
}

// UserProfile: единственный актуальный профиль пользователя.
type UserProfile struct {
	UserID               string
	Age                  int
	Gender               string
	HeightCM             float64
	ActivityLevel        string
	Goal                 string
	TargetWeightKG       *float64
	TargetKcalDeficit    *int
	ProteinPercent       float64
	CarbsPercent         float64
	FatPercent           float64
	DietaryRestrictions  []string
	Allergies            []string
	PreferTurkishCuisine bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Ingredient is a single line of a meal recipe.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Meal is a suggested meal attached to a daily plan. Stored as JSON inside the plan row.
type Meal struct {
	MealID          string       `json:"meal_id"`
	Name            string       `json:"name"`
	MealType        string       `json:"meal_type"`
	Kcal            int          `json:"kcal"`
	ProteinG        float64      `json:"protein_g"`
	CarbsG          float64      `json:"carbs_g"`
	FatG            float64      `json:"fat_g"`
	Ingredients     []Ingredient `json:"ingredients"`
	Instructions    []string     `json:"instructions"`
	PrepTimeMinutes int          `json:"prep_time_minutes"`
	CookTimeMinutes int          `json:"cook_time_minutes"`
	Servings        int          `json:"servings"`
	Tags            []string     `json:"tags"`
	Difficulty      string       `json:"difficulty"`
}

// DailyPlan: рекомендация на одну календарную дату, уникальна по (user_id, date).
type DailyPlan struct {
	UserID               string
	Date                 string // YYYY-MM-DD
	TargetKcal           int
	TargetProteinG       float64
	TargetCarbsG         float64
	TargetFatG           float64
	TargetSteps          int
	TargetWorkoutMinutes int
	SuggestedMeals       []Meal
	PlanReasoning        string
	AdjustmentsMade      []string
	CreatedAt            time.Time
}

// ChatMessage: один обмен репликами с командным слоем.
type ChatMessage struct {
	ID          uuid.UUID
	UserID      string
	Message     string
	Response    string
	CommandType string
	ContextData []byte // JSON object, may be nil
	CreatedAt   time.Time
}

// ReportMeta: метаданные сгенерированного отчёта.
type ReportMeta struct {
	ID        uuid.UUID
	UserID    string
	Format    string // pdf | csv
	FromDate  string // YYYY-MM-DD
	ToDate    string // YYYY-MM-DD
	ObjectKey *string
	SizeBytes int64
	Status    string
	CreatedAt time.Time
	Data      []byte // только для local режима (без S3)
}

// MetricsStorage: append-only хранилище наблюдений.
type MetricsStorage interface {
	// InsertMetric добавляет наблюдение, без дедупликации и без проверки согласованности полей.
	InsertMetric(ctx context.Context, metric *HealthMetric) error

	// InsertMetrics добавляет пачку наблюдений.
	InsertMetrics(ctx context.Context, metrics []HealthMetric) error

	// ListMetrics возвращает метрики пользователя, новые первыми.
	ListMetrics(ctx context.Context, q MetricQuery) ([]HealthMetric, error)
}

// ProfilesStorage: профили пользователей, latest-wins.
type ProfilesStorage interface {
	// UpsertProfile полностью заменяет профиль по user_id и обновляет updated_at.
	UpsertProfile(ctx context.Context, profile *UserProfile) error

	// GetProfile возвращает профиль или ErrNotFound.
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)

	// ListProfiles возвращает все профили.
	ListProfiles(ctx context.Context) ([]UserProfile, error)
}

// PlansStorage: дневные планы, replace-on-conflict по (user_id, date).
type PlansStorage interface {
	UpsertPlan(ctx context.Context, plan *DailyPlan) error
	GetPlan(ctx context.Context, userID, date string) (*DailyPlan, error)
	// ListPlans возвращает планы, новые даты первыми.
	ListPlans(ctx context.Context, userID string, limit int) ([]DailyPlan, error)
}

// ChatStorage: журнал обменов с командным слоем.
type ChatStorage interface {
	InsertMessage(ctx context.Context, msg *ChatMessage) error
	// ListMessages возвращает последние limit сообщений в хронологическом порядке.
	ListMessages(ctx context.Context, userID string, limit int) ([]ChatMessage, error)
}

// ReportsStorage: метаданные отчётов.
type ReportsStorage interface {
	CreateReport(ctx context.Context, report *ReportMeta) error
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)
	ListReports(ctx context.Context, userID string, limit int) ([]ReportMeta, error)
}

// Storage объединяет все хранилища одного бэкенда.
type Storage interface {
	MetricsStorage
	ProfilesStorage
	PlansStorage
	ChatStorage
	ReportsStorage

	// Close закрывает соединение (для Postgres/SQLite)
	Close() error
}
