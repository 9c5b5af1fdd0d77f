package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fdg312/macro-coach/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:           "local",
		AuthMode:      config.AuthModeJWT,
		AuthRequired:  true,
		JWTSecret:     "test-secret-key-for-testing-only",
		JWTIssuer:     "macro-coach-test",
		JWTTTLMinutes: 60,
	}
}

func issue(t *testing.T, service *Service, userID string) string {
	t.Helper()
	resp, err := service.IssueDevToken(userID)
	if err != nil {
		t.Fatalf("IssueDevToken: %v", err)
	}
	return resp.AccessToken
}

func TestHandleDevAuth(t *testing.T) {
	service := NewService(testConfig())
	handler := NewHandlers(service)

	req := httptest.NewRequest("POST", "/v1/auth/dev", bytes.NewBufferString(`{"user_id":"demo_user"}`))
	w := httptest.NewRecorder()

	handler.HandleDevAuth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp DevAuthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.AccessToken == "" {
		t.Error("expected access_token not empty")
	}
	if resp.TokenType != "Bearer" || resp.UserID != "demo_user" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expected expires_in 3600, got %d", resp.ExpiresIn)
	}

	sub, err := service.VerifyJWT(resp.AccessToken)
	if err != nil || sub != "demo_user" {
		t.Errorf("expected sub demo_user, got %q err=%v", sub, err)
	}
}

func TestHandleDevAuthErrors(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		body   string
		status int
	}{
		{"invalid json", "local", `{`, http.StatusBadRequest},
		{"missing user", "local", `{"user_id":"  "}`, http.StatusBadRequest},
		{"production", "production", `{"user_id":"demo_user"}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Env = tt.env
			handler := NewHandlers(NewService(cfg))

			req := httptest.NewRequest("POST", "/v1/auth/dev", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.HandleDevAuth(w, req)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestVerifyJWTRejects(t *testing.T) {
	cfg := testConfig()
	issuedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	service := NewService(cfg).WithClock(func() time.Time { return issuedAt })
	token := issue(t, service, "demo_user")

	t.Run("Expired", func(t *testing.T) {
		later := NewService(cfg).WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
		if _, err := later.VerifyJWT(token); err != ErrInvalidToken {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := testConfig()
		other.JWTSecret = "another-secret"
		verifier := NewService(other).WithClock(func() time.Time { return issuedAt })
		if _, err := verifier.VerifyJWT(token); err != ErrInvalidToken {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other := testConfig()
		other.JWTIssuer = "someone-else"
		verifier := NewService(other).WithClock(func() time.Time { return issuedAt })
		if _, err := verifier.VerifyJWT(token); err != ErrInvalidToken {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "demo_user",
			"iss": cfg.JWTIssuer,
			"exp": issuedAt.Add(time.Hour).Unix(),
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := service.VerifyJWT(raw); err != ErrInvalidToken {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestMiddlewareAuth(t *testing.T) {
	cfg := testConfig()
	service := NewService(cfg)
	middleware := NewMiddleware(cfg, service)

	t.Run("ValidToken", func(t *testing.T) {
		token := issue(t, service, "test_user_123")

		req := httptest.NewRequest("GET", "/v1/users/test_user_123/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		var calledNext bool
		handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calledNext = true
			userID, ok := GetUserID(r.Context())
			if !ok || userID != "test_user_123" {
				t.Errorf("expected user_id in context")
			}
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		if !calledNext {
			t.Error("expected next handler to be called")
		}
		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/users/test_user_123/profile", nil)
		w := httptest.NewRecorder()

		handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("should not call next handler")
		}))

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/users/test_user_123/profile", nil)
		req.Header.Set("Authorization", "Bearer invalid_token")
		w := httptest.NewRecorder()

		handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("should not call next handler")
		}))

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})

	t.Run("PublicPath", func(t *testing.T) {
		for _, path := range []string{"/healthz", "/v1/auth/dev"} {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()
			handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("%s: expected status 200, got %d", path, w.Code)
			}
		}
	})
}

func TestMiddlewareAuthDisabled(t *testing.T) {
	cfg := &config.Config{AuthMode: config.AuthModeNone}
	middleware := NewMiddleware(cfg, NewService(cfg))

	req := httptest.NewRequest("GET", "/v1/status/demo_user", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()

	var calledNext bool
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calledNext = true
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(w, req)

	if !calledNext {
		t.Error("expected next handler to be called when auth disabled")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRequired = false
	service := NewService(cfg)
	middleware := NewMiddleware(cfg, service)

	t.Run("NoTokenPasses", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/status/demo_user", nil)
		w := httptest.NewRecorder()

		var called bool
		handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if _, ok := GetUserID(r.Context()); ok {
				t.Error("expected anonymous context")
			}
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		if !called || w.Code != http.StatusOK {
			t.Fatalf("expected passthrough with 200, got called=%v status=%d", called, w.Code)
		}
	})

	t.Run("ValidTokenAddsContext", func(t *testing.T) {
		token := issue(t, service, "demo_user")

		req := httptest.NewRequest("GET", "/v1/status/demo_user", nil)
		req.Header.Set("Authorization", "bearer "+token)
		w := httptest.NewRecorder()

		var gotSub string
		handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotSub, _ = GetUserID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK || gotSub != "demo_user" {
			t.Fatalf("expected sub demo_user with 200, got sub=%q status=%d", gotSub, w.Code)
		}
	})

	t.Run("BadTokenRejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/status/demo_user", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()

		handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("should not call next handler")
		}))

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})
}
