package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
	defaultUserID  = "smoke_user"
)

var (
	apiBase  string
	token    string
	userID   string
	client   = &http.Client{Timeout: 30 * time.Second}
	today    string
	reportID string
)

func main() {
	fmt.Println("=== Macro Coach E2E Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBase), "/")
	token = getEnv("SMOKE_TOKEN", "")
	userID = getEnv("SMOKE_USER_ID", defaultUserID)

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Printf("User ID: %s\n", userID)
	fmt.Println()

	today = time.Now().UTC().Format("2006-01-02")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Token", testDevToken},
		{"Upsert Profile", testUpsertProfile},
		{"Record Metrics", testRecordMetrics},
		{"Generate Plan", testGeneratePlan},
		{"Get Status", testGetStatus},
		{"Chat /status", testChatStatus},
		{"Create Report (CSV)", testCreateReport},
		{"Download Report", testDownloadReport},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	return call(http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

// testDevToken получает dev-токен, если SMOKE_TOKEN не задан.
// 403/404 означают, что dev-токены выключены: дальше идём без авторизации.
func testDevToken() error {
	if token != "" {
		return nil
	}

	body, _ := json.Marshal(map[string]string{"user_id": userID})
	req, err := http.NewRequest(http.MethodPost, apiBase+"/v1/auth/dev", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound:
		return nil
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	token = result.AccessToken
	return nil
}

func testUpsertProfile() error {
	payload := map[string]any{
		"age":                    30,
		"gender":                 "female",
		"height_cm":              168,
		"activity_level":         "lightly_active",
		"goal":                   "lose_weight",
		"target_weight_kg":       62,
		"protein_percent":        30,
		"carbs_percent":          40,
		"fat_percent":            30,
		"prefer_turkish_cuisine": true,
	}
	return call(http.MethodPut, "/v1/users/"+userID+"/profile", payload, http.StatusOK, nil)
}

func testRecordMetrics() error {
	now := time.Now().UTC()
	payload := map[string]any{
		"metrics": []map[string]any{
			{"timestamp": now.Add(-3 * time.Hour).Format(time.RFC3339), "weight": 66.4, "steps": 4200},
			{"timestamp": now.Add(-2 * time.Hour).Format(time.RFC3339), "kcal_in": 540, "protein_g": 32, "carbs_g": 60, "fat_g": 18},
			{"timestamp": now.Add(-1 * time.Hour).Format(time.RFC3339), "workout_type": "walking", "workout_duration_minutes": 35, "rpe": 4},
		},
	}
	return call(http.MethodPost, "/v1/users/"+userID+"/metrics", payload, http.StatusCreated, nil)
}

func testGeneratePlan() error {
	var result struct {
		Date           string `json:"date"`
		TargetKcal     int    `json:"target_kcal"`
		SuggestedMeals []any  `json:"suggested_meals"`
	}
	if err := call(http.MethodPost, "/v1/users/"+userID+"/plans", map[string]any{}, http.StatusCreated, &result); err != nil {
		return err
	}
	if result.TargetKcal <= 0 {
		return fmt.Errorf("plan %s has target_kcal=%d", result.Date, result.TargetKcal)
	}
	if len(result.SuggestedMeals) == 0 {
		return fmt.Errorf("plan %s has no meals", result.Date)
	}
	return nil
}

func testGetStatus() error {
	var result struct {
		UserID             string `json:"user_id"`
		RecentMetricsCount int    `json:"recent_metrics_count"`
	}
	if err := call(http.MethodGet, "/v1/status/"+userID, nil, http.StatusOK, &result); err != nil {
		return err
	}
	if result.RecentMetricsCount == 0 {
		return fmt.Errorf("status shows no recent metrics")
	}
	return nil
}

func testChatStatus() error {
	var result struct {
		Response    string `json:"response"`
		CommandType string `json:"command_type"`
	}
	payload := map[string]string{"user_id": userID, "message": "/status"}
	if err := call(http.MethodPost, "/v1/chat", payload, http.StatusOK, &result); err != nil {
		return err
	}
	if result.CommandType != "status" || result.Response == "" {
		return fmt.Errorf("unexpected chat reply: type=%q response=%q", result.CommandType, result.Response)
	}
	return nil
}

func testCreateReport() error {
	payload := map[string]string{
		"format": "csv",
		"from":   time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02"),
		"to":     today,
	}

	var result struct {
		ID        string `json:"id"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := call(http.MethodPost, "/v1/users/"+userID+"/reports", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	if result.SizeBytes < 10 {
		return fmt.Errorf("report size is %d bytes (too small)", result.SizeBytes)
	}
	reportID = result.ID
	return nil
}

func testDownloadReport() error {
	if reportID == "" {
		return fmt.Errorf("no report id from previous step")
	}

	req, err := http.NewRequest(http.MethodGet, apiBase+"/v1/reports/"+reportID+"/download", nil)
	if err != nil {
		return err
	}
	addAuth(req)

	// redirect на presigned URL клиент проходит сам
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(raw, []byte("date,")) {
		return fmt.Errorf("unexpected CSV header: %.40q", raw)
	}
	return nil
}

// call делает JSON-запрос и декодирует ответ в out (если out != nil).
func call(method, path string, payload any, expect int, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expect {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
