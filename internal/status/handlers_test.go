package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/fdg312/macro-coach/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func newTestHandler(store *memory.MemoryStorage) *Handler {
	metricsService := metrics.NewService(store, time.UTC).WithClock(func() time.Time { return testNow })
	return NewHandler(NewService(store, metricsService, 7))
}

func getStatus(t *testing.T, handler *Handler, userID string) map[string]json.RawMessage {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/status/"+userID, nil)
	req.SetPathValue("user_id", userID)
	w := httptest.NewRecorder()

	handler.HandleGet(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestStatusForUnknownUser(t *testing.T) {
	store := memory.New()
	resp := getStatus(t, newTestHandler(store), "ghost")

	if string(resp["profile"]) != "null" {
		t.Errorf("expected null profile, got %s", resp["profile"])
	}
	if string(resp["recent_metrics_count"]) != "0" {
		t.Errorf("expected 0 recent metrics, got %s", resp["recent_metrics_count"])
	}
	if _, ok := resp["progress"]; ok {
		t.Error("progress must be absent without profile and metrics")
	}
	if string(resp["date"]) != `"2024-03-10"` {
		t.Errorf("unexpected date %s", resp["date"])
	}
}

func TestStatusWithProfileMetricsAndPlan(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	store.UpsertProfile(ctx, &storage.UserProfile{
		UserID: "demo_user", Age: 28, Gender: "male", HeightCM: 175,
		ActivityLevel: "moderately_active", Goal: "lose_weight",
		ProteinPercent: 35, CarbsPercent: 40, FatPercent: 25,
	})
	store.InsertMetric(ctx, &storage.HealthMetric{UserID: "demo_user", Timestamp: testNow.Add(-2 * time.Hour), KcalIn: floatPtr(800), ProteinG: floatPtr(60)})
	store.InsertMetric(ctx, &storage.HealthMetric{UserID: "demo_user", Timestamp: testNow.AddDate(0, 0, -2), Weight: floatPtr(80)})
	store.InsertMetric(ctx, &storage.HealthMetric{UserID: "demo_user", Timestamp: testNow.AddDate(0, 0, -30), Weight: floatPtr(90)})
	store.UpsertPlan(ctx, &storage.DailyPlan{
		UserID: "demo_user", Date: "2024-03-10",
		TargetKcal: 2226, TargetProteinG: 194.8, TargetCarbsG: 222.6, TargetFatG: 61.8,
	})

	resp := getStatus(t, newTestHandler(store), "demo_user")

	if string(resp["recent_metrics_count"]) != "2" {
		t.Errorf("expected 2 metrics in the 7-day window, got %s", resp["recent_metrics_count"])
	}
	if _, ok := resp["progress"]; !ok {
		t.Error("expected progress report")
	}

	var remaining Remaining
	json.Unmarshal(resp["remaining"], &remaining)
	if remaining.Kcal != 1426 || remaining.ProteinG != 134.8 {
		t.Errorf("expected 1426 kcal / 134.8 g protein remaining, got %+v", remaining)
	}

	var summary metrics.DailySummary
	json.Unmarshal(resp["daily_summary"], &summary)
	if summary.TotalMetrics != 1 || *summary.KcalIn != 800 {
		t.Errorf("unexpected daily summary: %+v", summary)
	}
}
