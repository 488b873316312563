package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		check  Check
		code   int
		status string
	}{
		{"in process", nil, http.StatusOK, "healthy"},
		{"reachable", func(context.Context) error { return nil }, http.StatusOK, "healthy"},
		{"down", func(context.Context) error { return errors.New("connection refused") }, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)
			if err := HealthHandler("mongo", tt.check, nil)(c); err != nil {
				t.Fatal(err)
			}
			var h Health
			json.Unmarshal(rec.Body.Bytes(), &h)
			if rec.Code != tt.code || h.Status != tt.status || h.Driver != "mongo" || h.Pool != nil {
				t.Errorf("unexpected health %d %+v", rec.Code, h)
			}
		})
	}
}

func TestHealthHandler_Deadline(t *testing.T) {
	var hasDeadline bool
	check := func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), httptest.NewRecorder())
	HealthHandler("postgres", check, nil)(c)
	if !hasDeadline {
		t.Error("expected the check to run under a deadline")
	}
}
