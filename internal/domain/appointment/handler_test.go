package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/internal/platform/form"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func withUser(req *http.Request, id string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, id))
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandler_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()

	body := `{"patient_id":"` + f.jane.ID.String() + `","start":"2024-03-05T09:00","end":"2024-03-05T09:45","reason":"Checkup"}`
	rec := httptest.NewRecorder()
	if err := h.CreateAppointment(e.NewContext(jsonRequest(http.MethodPost, "/", body), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created View
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Duration != 45 || created.PatientName != "Jane Doe" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	if err := h.GetAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"formatted_time":"09:00"`) {
		t.Errorf("expected formatted time in %s", rec.Body.String())
	}
}

func TestHandler_CreateInvalid(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()

	body := `{"patient_id":"` + f.jane.ID.String() + `","start":"2024-03-05T10:00","end":"2024-03-05T09:00"}`
	err := h.CreateAppointment(e.NewContext(jsonRequest(http.MethodPost, "/", body), httptest.NewRecorder()))
	if code := httpCode(t, err); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", code)
	}
	err = h.CreateAppointment(e.NewContext(jsonRequest(http.MethodPost, "/", "{"), httptest.NewRecorder()))
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_GetErrors(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()
	tests := []struct {
		id   string
		code int
	}{
		{"not-a-uuid", http.StatusBadRequest},
		{"6f1c2d1e-0000-4000-8000-000000000000", http.StatusNotFound},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tt.id)
		if code := httpCode(t, h.GetAppointment(c)); code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.id, tt.code, code)
		}
	}
}

func TestHandler_ListAndCalendar(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()
	f.book(t, "2024-03-01T09:00", "2024-03-01T09:30")
	f.book(t, "2024-03-01T14:00", "2024-03-01T14:30")
	f.book(t, "2024-03-02T09:00", "2024-03-02T09:30")

	rec := httptest.NewRecorder()
	if err := h.ListAppointments(e.NewContext(httptest.NewRequest(http.MethodGet, "/?date=today&sort=date&direction=desc", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var page struct {
		Items      []View `json:"items"`
		TotalItems int    `json:"total_items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.TotalItems != 2 || page.Items[0].FormattedTime != "14:00" {
		t.Errorf("expected today's visits newest first, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	if err := h.ListAppointments(e.NewContext(httptest.NewRequest(http.MethodGet, "/?group=day", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"key":"2024-03-02"`) {
		t.Errorf("expected day groups, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	if err := h.MonthCalendar(e.NewContext(httptest.NewRequest(http.MethodGet, "/?month=2024-03", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"label":"March 2024"`) {
		t.Errorf("unexpected calendar %s", rec.Body.String())
	}

	tests := []struct {
		name   string
		target string
		call   func(echo.Context) error
	}{
		{"bad month", "/?month=2024-13", h.MonthCalendar},
		{"bad day", "/?date=tomorrow", h.DayCalendar},
		{"bad sort", "/?sort=room", h.ListAppointments},
		{"bad provider", "/?provider_id=x", h.ListAppointments},
		{"bad from", "/?from=soon", h.ListAppointments},
	}
	for _, tt := range tests {
		err := tt.call(e.NewContext(httptest.NewRequest(http.MethodGet, tt.target, nil), httptest.NewRecorder()))
		if code := httpCode(t, err); code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, code)
		}
	}
}

func TestHandler_ListDateRangeIncludesLastDay(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()
	f.book(t, "2024-02-29T16:00", "2024-02-29T16:30")
	f.book(t, "2024-03-01T09:00", "2024-03-01T09:30")
	f.book(t, "2024-03-01T23:00", "2024-03-01T23:30")
	f.book(t, "2024-03-02T09:00", "2024-03-02T09:30")

	tests := []struct {
		target string
		want   int
	}{
		{"/?from=2024-03-01&to=2024-03-01", 2},
		{"/?to=2024-03-01", 3},
		{"/?from=2024-03-01&to=2024-03-01T12:00", 1},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		if err := h.ListAppointments(e.NewContext(httptest.NewRequest(http.MethodGet, tt.target, nil), rec)); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.target, err)
		}
		var page struct {
			TotalItems int `json:"total_items"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatal(err)
		}
		if page.TotalItems != tt.want {
			t.Errorf("%s: expected %d appointments, got %d", tt.target, tt.want, page.TotalItems)
		}
	}
}

func TestHandler_ActivePatientScope(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()
	f.book(t, "2024-03-01T09:00", "2024-03-01T09:30")
	other, err := f.patients.Create(context.Background(), form.Values{
		"first_name": "Sam", "last_name": "Lee", "dob": "1990-01-01", "gender": "Other", "phone": "555-0111",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Create(context.Background(), form.Values{
		"patient_id": other.ID.String(), "start": "2024-03-01T10:00", "end": "2024-03-01T10:30",
	}); err != nil {
		t.Fatal(err)
	}

	req := withUser(httptest.NewRequest(http.MethodGet, "/?patient=active", nil), "u1")
	err = h.ListAppointments(e.NewContext(req, httptest.NewRecorder()))
	if code := httpCode(t, err); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 without a selection, got %d", code)
	}

	if _, err := f.patients.Select(context.Background(), "u1", other.ID); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	req = withUser(httptest.NewRequest(http.MethodGet, "/?patient=active", nil), "u1")
	if err := h.ListAppointments(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "Jane Doe") || !strings.Contains(rec.Body.String(), "Sam Lee") {
		t.Errorf("expected only the active patient's visits, got %s", rec.Body.String())
	}
}

func TestHandler_Wizard(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()

	rec := httptest.NewRecorder()
	if err := h.Wizard(e.NewContext(jsonRequest(http.MethodPost, "/", `{"step":1,"action":"next","values":{}}`), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Patient name is required") {
		t.Errorf("expected 422 with step errors, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	if err := h.Wizard(e.NewContext(jsonRequest(http.MethodPost, "/", `{"step":2,"action":"back","values":{}}`), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"step":1`) {
		t.Errorf("expected step 1, got %d %s", rec.Code, rec.Body.String())
	}

	err := h.Wizard(e.NewContext(jsonRequest(http.MethodPost, "/", `{"step":1,"action":"jump"}`), httptest.NewRecorder()))
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown action, got %d", code)
	}
}

func TestHandler_WizardPatient(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()

	rec := httptest.NewRecorder()
	body := `{"first_name":"Ada","dob":"1990-12-10","gender":"Female","phone":"555-0123"}`
	if err := h.WizardPatient(e.NewContext(jsonRequest(http.MethodPost, "/", body), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"first_name":"Ada"`) {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	err := h.WizardPatient(e.NewContext(jsonRequest(http.MethodPost, "/", `{"first_name":"Ada"}`), httptest.NewRecorder()))
	if code := httpCode(t, err); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", code)
	}
}

func TestHandler_DeleteAppointment(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()
	v := f.book(t, "2024-03-01T09:00", "2024-03-01T09:30")

	for _, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
		c.SetParamNames("id")
		c.SetParamValues(v.ID.String())
		err := h.DeleteAppointment(c)
		if want == http.StatusNoContent {
			if err != nil || rec.Code != want {
				t.Errorf("expected 204, got %d %v", rec.Code, err)
			}
			continue
		}
		if code := httpCode(t, err); code != want {
			t.Errorf("expected 404, got %d", code)
		}
	}
}
