package medicalrecord

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/platform/apierr"
	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/internal/platform/form"
	"github.com/caretrack/caretrack/internal/platform/timeline"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	read.GET("/medical-records", h.ListRecords)
	read.GET("/medical-records/timeline", h.Timeline)
	read.GET("/medical-records/form", h.DescribeForm)
	read.GET("/medical-records/:id", h.GetRecord)

	write := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	write.POST("/medical-records", h.CreateRecord)
	write.PUT("/medical-records/:id", h.UpdateRecord)
	write.DELETE("/medical-records/:id", h.DeleteRecord)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
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

// filter reads q, type, start and end plus either patient_id or
// patient=active. The guard fails once the active selection changes.
func (h *Handler) filter(c echo.Context) (Filter, func() error, error) {
	noop := func() error { return nil }
	f := Filter{Search: c.QueryParam("q"), Type: c.QueryParam("type")}
	var err error
	if f.Start, err = queryDate(c, "start"); err != nil {
		return f, noop, err
	}
	if f.End, err = queryDate(c, "end"); err != nil {
		return f, noop, err
	}
	if c.QueryParam("patient") == "active" {
		id, guard, ok := h.svc.Patients().Active().Scope(auth.UserIDFromContext(c.Request().Context()))
		if !ok {
			return f, noop, apierr.From(apierr.Invalid("patient", "No patient selected"), "")
		}
		f.PatientID = &id
		return f, guard, nil
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, noop, echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = &id
	}
	return f, noop, nil
}

func (h *Handler) ListRecords(c echo.Context) error {
	f, guard, err := h.filter(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), f)
	if err == nil {
		err = guard()
	}
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Timeline(c echo.Context) error {
	f, guard, err := h.filter(c)
	if err != nil {
		return err
	}
	opts := timeline.Options{}
	switch g := c.QueryParam("group"); g {
	case "", string(timeline.ByDay):
	case string(timeline.ByMonth):
		opts.Granularity = timeline.ByMonth
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group "+g)
	}
	opts.OldestFirst = c.QueryParam("order") == "oldest"

	view, err := h.svc.Timeline(c.Request().Context(), f, opts)
	if err == nil {
		err = guard()
	}
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) DescribeForm(c echo.Context) error {
	return c.JSON(http.StatusOK, Schema.Describe())
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apierr.From(err, "medical record not found")
	}
	return c.JSON(http.StatusOK, NewEntry(r))
}

func (h *Handler) CreateRecord(c echo.Context) error {
	v, err := patient.BindValues(c)
	if err != nil {
		return err
	}
	r, err := h.svc.Create(c.Request().Context(), v)
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	v, err := patient.BindValues(c)
	if err != nil {
		return err
	}
	r, err := h.svc.Update(c.Request().Context(), id, v)
	if err != nil {
		return apierr.From(err, "medical record not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return apierr.From(err, "")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "medical record not found")
	}
	return c.NoContent(http.StatusNoContent)
}
