package httpserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/macro-coach/internal/config"
	"github.com/fdg312/macro-coach/internal/storage/memory"
)

func newTestServer(cfg *config.Config) *Server {
	return NewWithDeps(cfg, Deps{Storage: memory.New()})
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&config.Config{Port: 8080})

	w := do(t, srv.Handler(), http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", resp["status"])
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&config.Config{Port: 8080})

	w := do(t, srv.Handler(), http.MethodPost, "/healthz", "", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestCoachingFlow(t *testing.T) {
	srv := newTestServer(&config.Config{Port: 8080})
	h := srv.Handler()

	steps := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"profile", http.MethodPut, "/v1/users/demo_user/profile",
			`{"age":28,"gender":"male","height_cm":175,"activity_level":"moderately_active","goal":"lose_weight"}`, http.StatusOK},
		{"metric", http.MethodPost, "/v1/users/demo_user/metrics", `{"timestamp":"2024-03-10T08:00:00Z","weight":80.5,"steps":6000}`, http.StatusCreated},
		{"batch", http.MethodPost, "/v1/users/demo_user/metrics",
			`{"metrics":[{"timestamp":"2024-03-10T12:00:00Z","kcal_in":600,"protein_g":40},{"timestamp":"2024-03-10T19:00:00Z","kcal_in":700,"protein_g":45}]}`, http.StatusCreated},
		{"list metrics", http.MethodGet, "/v1/users/demo_user/metrics?limit=10", "", http.StatusOK},
		{"progress", http.MethodGet, "/v1/users/demo_user/progress?days=7", "", http.StatusOK},
		{"plan", http.MethodPost, "/v1/users/demo_user/plans", `{}`, http.StatusCreated},
		{"plans", http.MethodGet, "/v1/users/demo_user/plans", "", http.StatusOK},
		{"status", http.MethodGet, "/v1/status/demo_user", "", http.StatusOK},
		{"chat", http.MethodPost, "/v1/chat", `{"user_id":"demo_user","message":"/status"}`, http.StatusOK},
		{"chat history", http.MethodGet, "/v1/users/demo_user/chat/messages", "", http.StatusOK},
		{"unknown plan", http.MethodGet, "/v1/users/demo_user/plans/2001-01-01", "", http.StatusNotFound},
	}

	for _, st := range steps {
		w := do(t, h, st.method, st.path, st.body, "")
		if w.Code != st.status {
			t.Fatalf("%s: expected %d, got %d: %s", st.name, st.status, w.Code, w.Body.String())
		}
	}
}

func TestOwnershipWithJWT(t *testing.T) {
	cfg := &config.Config{
		Env:           "local",
		AuthMode:      config.AuthModeJWT,
		AuthRequired:  true,
		JWTSecret:     "test-secret",
		JWTIssuer:     "macro-coach-test",
		JWTTTLMinutes: 60,
	}
	h := newTestServer(cfg).Handler()

	w := do(t, h, http.MethodPost, "/v1/auth/dev", `{"user_id":"alice"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("dev token: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	json.NewDecoder(w.Body).Decode(&tok)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		status int
	}{
		{"own status", http.MethodGet, "/v1/status/alice", "", tok.AccessToken, http.StatusOK},
		{"foreign status", http.MethodGet, "/v1/status/bob", "", tok.AccessToken, http.StatusForbidden},
		{"foreign metrics", http.MethodGet, "/v1/users/bob/metrics", "", tok.AccessToken, http.StatusForbidden},
		{"no token", http.MethodGet, "/v1/status/alice", "", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/v1/status/alice", "", "garbage", http.StatusUnauthorized},
		{"chat foreign body user", http.MethodPost, "/v1/chat", `{"user_id":"bob","message":"/help"}`, tok.AccessToken, http.StatusForbidden},
		{"chat own", http.MethodPost, "/v1/chat", `{"message":"/help"}`, tok.AccessToken, http.StatusOK},
		{"healthz public", http.MethodGet, "/healthz", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body, tt.token)
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestMealRecognizeRoute(t *testing.T) {
	h := newTestServer(&config.Config{}).Handler()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, _ := mw.CreateFormFile("file", "plate.png")
	part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/users/demo_user/meals/recognize", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["user_id"] != "demo_user" || resp["source"] != "mock" {
		t.Errorf("unexpected response: %v", resp)
	}
}
