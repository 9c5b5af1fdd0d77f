package profiles

import (
	"time"
)

// ProfileDTO: DTO для API
type ProfileDTO struct {
	UserID               string    `json:"user_id"`
	Age                  int       `json:"age"`
	Gender               string    `json:"gender"`
	HeightCM             float64   `json:"height_cm"`
	ActivityLevel        string    `json:"activity_level"`
	Goal                 string    `json:"goal"`
	TargetWeightKG       *float64  `json:"target_weight_kg"`
	TargetKcalDeficit    *int      `json:"target_kcal_deficit"`
	ProteinPercent       float64   `json:"protein_percent"`
	CarbsPercent         float64   `json:"carbs_percent"`
	FatPercent           float64   `json:"fat_percent"`
	DietaryRestrictions  []string  `json:"dietary_restrictions"`
	Allergies            []string  `json:"allergies"`
	PreferTurkishCuisine bool      `json:"prefer_turkish_cuisine"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UpsertProfileRequest: запрос для PUT /v1/users/{user_id}/profile.
// Полная замена: неуказанные поля получают значения по умолчанию, а не старые.
type UpsertProfileRequest struct {
	Age                  int      `json:"age"`
	Gender               string   `json:"gender"`
	HeightCM             float64  `json:"height_cm"`
	ActivityLevel        string   `json:"activity_level"`
	Goal                 string   `json:"goal"`
	TargetWeightKG       *float64 `json:"target_weight_kg,omitempty"`
	TargetKcalDeficit    *int     `json:"target_kcal_deficit,omitempty"`
	ProteinPercent       *float64 `json:"protein_percent,omitempty"`
	CarbsPercent         *float64 `json:"carbs_percent,omitempty"`
	FatPercent           *float64 `json:"fat_percent,omitempty"`
	DietaryRestrictions  []string `json:"dietary_restrictions,omitempty"`
	Allergies            []string `json:"allergies,omitempty"`
	PreferTurkishCuisine *bool    `json:"prefer_turkish_cuisine,omitempty"`
}

// ErrorResponse: формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
