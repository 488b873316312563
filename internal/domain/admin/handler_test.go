package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	return NewHandler(newTestService(t)), echo.New()
}

func entityContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, entity string, id ...string) echo.Context {
	c := e.NewContext(req, rec)
	if len(id) == 0 {
		c.SetParamNames("entity")
		c.SetParamValues(entity)
		return c
	}
	c.SetParamNames("entity", "id")
	c.SetParamValues(entity, id[0])
	return c
}

func TestHandler_Dashboard(t *testing.T) {
	h, e := newTestHandler(t)
	rec := httptest.NewRecorder()
	if err := h.Dashboard(e.NewContext(httptest.NewRequest(http.MethodGet, "/admin", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cards []Card
	if err := json.Unmarshal(rec.Body.Bytes(), &cards); err != nil {
		t.Fatal(err)
	}
	if len(cards) != 4 || cards[0].Path != "/admin/patients" || cards[1].Count != 3 {
		t.Errorf("unexpected dashboard %s", rec.Body.String())
	}
}

func TestHandler_ListRowsToggle(t *testing.T) {
	h, e := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/providers?sort=name&toggle=name&q=dr.", nil)
	if err := h.ListRows(entityContext(e, req, rec, "providers")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var page struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		TotalItems int    `json:"total_items"`
		Direction  string `json:"direction"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.TotalItems != 3 || page.Direction != "desc" || page.Items[0].Name != "Dr. Smith" {
		t.Errorf("unexpected table %s", rec.Body.String())
	}
}

func TestHandler_Errors(t *testing.T) {
	h, e := newTestHandler(t)
	tests := []struct {
		name   string
		call   func(echo.Context) error
		method string
		body   string
		entity string
		id     []string
		code   int
	}{
		{"unknown entity table", h.ListRows, http.MethodGet, "", "wards", nil, http.StatusNotFound},
		{"unknown entity schema", h.Describe, http.MethodGet, "", "wards", nil, http.StatusNotFound},
		{"bad sort", h.ListRows, http.MethodGet, "", "providers", nil, http.StatusBadRequest},
		{"bad id", h.GetRow, http.MethodGet, "", "providers", []string{"nope"}, http.StatusBadRequest},
		{"missing row", h.GetRow, http.MethodGet, "", "providers", []string{uuid.NewString()}, http.StatusNotFound},
		{"invalid body", h.CreateRow, http.MethodPost, `{"name":`, "providers", nil, http.StatusBadRequest},
		{"invalid form", h.CreateRow, http.MethodPost, `{"name":"Dr. X"}`, "providers", nil, http.StatusUnprocessableEntity},
		{"delete missing", h.DeleteRow, http.MethodDelete, "", "providers", []string{uuid.NewString()}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/admin/" + tt.entity
			if tt.name == "bad sort" {
				target += "?sort=color"
			}
			req := httptest.NewRequest(tt.method, target, strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			err := tt.call(entityContext(e, req, httptest.NewRecorder(), tt.entity, tt.id...))
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != tt.code {
				t.Errorf("expected %d, got %v", tt.code, err)
			}
		})
	}
}

func TestHandler_CreateUpdateDelete(t *testing.T) {
	h, e := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/appointment-types", strings.NewReader(`{"name":"Follow-up","color":"#22c55e","tags":"short"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if err := h.CreateRow(entityContext(e, req, rec, "appointment-types")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if len(created.Tags) != 1 || created.Tags[0] != "short" {
		t.Errorf("unexpected tags %v", created.Tags)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"Follow-up visit","color":"#16a34a"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if err := h.UpdateRow(entityContext(e, req, rec, "appointment-types", created.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"name":"Follow-up visit"`) {
		t.Errorf("unexpected update body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	if err := h.DeleteRow(entityContext(e, httptest.NewRequest(http.MethodDelete, "/", nil), rec, "appointment-types", created.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
