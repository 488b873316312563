package appointment

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/platform/apierr"
	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/listing"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	read.GET("/appointments", h.ListAppointments)
	read.GET("/appointments/calendar", h.MonthCalendar)
	read.GET("/appointments/calendar/day", h.DayCalendar)
	read.GET("/appointments/form", h.DescribeForm)
	read.GET("/appointments/:id", h.GetAppointment)

	write := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	write.POST("/appointments", h.CreateAppointment)
	write.POST("/appointments/validate", h.ValidateAppointment)
	write.PUT("/appointments/:id", h.UpdateAppointment)
	write.DELETE("/appointments/:id", h.DeleteAppointment)
	write.POST("/appointments/wizard", h.Wizard)
	write.POST("/appointments/wizard/patient", h.WizardPatient)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func optionalID(c echo.Context, name string) (*uuid.UUID, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func optionalDate(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, ok := form.ParseDate(v)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &t, nil
}

// optionalEnd is optionalDate for an inclusive upper bound: a bare
// YYYY-MM-DD covers the whole day.
func optionalEnd(c echo.Context, name string) (*time.Time, error) {
	t, err := optionalDate(c, name)
	if t == nil || err != nil {
		return t, err
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(c.QueryParam(name))); err == nil {
		y, m, d := t.Date()
		end := time.Date(y, m, d, 23, 59, 59, 0, t.Location())
		return &end, nil
	}
	return t, nil
}

// scope reads the store-side filter from the query string. patient=active
// scopes to the session's active patient; the returned guard reports
// whether that selection changed while the caller was fetching.
func (h *Handler) scope(c echo.Context) (Filter, func() error, error) {
	var (
		f   Filter
		err error
	)
	noop := func() error { return nil }
	for name, dst := range map[string]**uuid.UUID{
		"provider_id": &f.ProviderID,
		"status_id":   &f.StatusID,
		"type_id":     &f.TypeID,
	} {
		if *dst, err = optionalID(c, name); err != nil {
			return f, noop, err
		}
	}
	if f.From, err = optionalDate(c, "from"); err != nil {
		return f, noop, err
	}
	if f.To, err = optionalEnd(c, "to"); err != nil {
		return f, noop, err
	}

	if c.QueryParam("patient") != "active" {
		f.PatientID, err = optionalID(c, "patient_id")
		return f, noop, err
	}
	session := auth.UserIDFromContext(c.Request().Context())
	id, guard, ok := h.svc.Patients().Active().Scope(session)
	if !ok {
		return f, noop, apierr.From(apierr.Invalid("patient", "No patient selected"), "")
	}
	f.PatientID = &id
	return f, guard, nil
}

func (h *Handler) ListAppointments(c echo.Context) error {
	f, guard, err := h.scope(c)
	if err != nil {
		return err
	}
	st := listing.FromContext(c, "status", "type", "provider", "date")
	ctx := c.Request().Context()
	if c.QueryParam("group") == "day" {
		groups, err := h.svc.Groups(ctx, f, st)
		if err == nil {
			err = guard()
		}
		if err != nil {
			return apierr.From(err, "")
		}
		return c.JSON(http.StatusOK, map[string]any{"groups": groups})
	}
	res, err := h.svc.Page(ctx, f, st)
	if err == nil {
		err = guard()
	}
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) MonthCalendar(c echo.Context) error {
	f, guard, err := h.scope(c)
	if err != nil {
		return err
	}
	m, err := h.svc.Calendar(c.Request().Context(), c.QueryParam("month"), f)
	if err == nil {
		err = guard()
	}
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DayCalendar(c echo.Context) error {
	f, guard, err := h.scope(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Day(c.Request().Context(), c.QueryParam("date"), f)
	if err == nil {
		err = guard()
	}
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DescribeForm(c echo.Context) error {
	return c.JSON(http.StatusOK, Schema.Describe())
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apierr.From(err, "appointment not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	v, err := patient.BindValues(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Create(c.Request().Context(), v)
	if err != nil {
		return apierr.From(err, "appointment not found")
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *Handler) ValidateAppointment(c echo.Context) error {
	v, err := patient.BindValues(c)
	if err != nil {
		return err
	}
	if err := h.svc.Validate(v); err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, map[string]any{"valid": true})
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	v, err := patient.BindValues(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Update(c.Request().Context(), id, v)
	if err != nil {
		return apierr.From(err, "appointment not found")
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return apierr.From(err, "")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Wizard(c echo.Context) error {
	var req WizardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid wizard request")
	}
	st, err := h.svc.Advance(c.Request().Context(), req)
	if err != nil {
		return apierr.From(err, "")
	}
	switch {
	case st.Invalid():
		return c.JSON(http.StatusUnprocessableEntity, st)
	case st.Complete:
		return c.JSON(http.StatusCreated, st)
	}
	return c.JSON(http.StatusOK, st)
}

// WizardPatient registers a patient from the picker's inline form. The
// response carries the id the picker selects.
func (h *Handler) WizardPatient(c echo.Context) error {
	v, err := patient.BindValues(c)
	if err != nil {
		return err
	}
	p, err := h.svc.RegisterPatient(c.Request().Context(), v)
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusCreated, p)
}
