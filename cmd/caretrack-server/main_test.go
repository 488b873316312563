package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/config"
	"github.com/caretrack/caretrack/internal/platform/auth"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:             "0",
		Env:              "test",
		StoreDriver:      config.DriverMemory,
		AuthSigningKey:   strings.Repeat("ab", 32),
		SessionTTL:       time.Hour,
		RequestTimeout:   5 * time.Second,
		BodyLimit:        "1MB",
		ReminderSchedule: "0 8 * * *",
		PageSize:         10,
	}
}

func newTestApp(t *testing.T) (*app, *echo.Echo) {
	t.Helper()
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)
	return a, a.newEcho()
}

func serve(e *echo.Echo, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	_, e := newTestApp(t)

	rec := serve(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected /health response %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, http.MethodGet, "/health/db", "")
	var h map[string]any
	json.Unmarshal(rec.Body.Bytes(), &h)
	if rec.Code != http.StatusOK || h["driver"] != config.DriverMemory || h["status"] != "healthy" {
		t.Errorf("unexpected /health/db response %d %v", rec.Code, h)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_Gating(t *testing.T) {
	_, e := newTestApp(t)

	tests := []struct {
		name     string
		target   string
		code     int
		location string
	}{
		{"api requires auth", "/api/v1/patients", http.StatusUnauthorized, ""},
		{"public session", "/api/v1/session", http.StatusOK, ""},
		{"page redirects to login", "/patients", http.StatusFound, "/login?redirect=%2Fpatients"},
		{"login page is public", "/login", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, tt.target, "")
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("expected location %q, got %q", tt.location, got)
			}
		})
	}
}

func TestServer_SignupThenBrowse(t *testing.T) {
	a, e := newTestApp(t)
	if err := seed(context.Background(), a.refs, a.patients, zerolog.Nop()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := serve(e, http.MethodPost, "/api/v1/auth/signup", `{"name":"Ada","email":"ada@clinic.test","password":"password1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected a session cookie")
	}

	rec = serve(e, http.MethodGet, "/api/v1/patients", "", session)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Jane") {
		t.Errorf("expected the seeded patients, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, http.MethodGet, "/api/v1/help/search?q=password", "", session)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"login-issues"`) {
		t.Errorf("expected help search hits, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, http.MethodGet, "/admin", "", session)
	if rec.Code != http.StatusOK {
		t.Errorf("expected the first account to reach the admin page, got %d", rec.Code)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := seed(ctx, a.refs, a.patients, zerolog.Nop()); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}
	statuses, _ := a.refs.Statuses.List(ctx)
	providers, _ := a.refs.Providers.List(ctx)
	patients, _ := a.patients.All(ctx)
	if len(statuses) != len(seedStatuses) || len(providers) != len(seedProviders) || len(patients) != len(seedPatients) {
		t.Errorf("unexpected counts: %d statuses, %d providers, %d patients", len(statuses), len(providers), len(patients))
	}
}
