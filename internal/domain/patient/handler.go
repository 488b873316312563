package patient

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	read.GET("/patients", h.ListPatients)
	read.GET("/patients/search", h.SearchPatients)
	read.GET("/patients/form", h.DescribeForm)
	read.GET("/patients/:id", h.GetPatient)

	write := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	write.POST("/patients", h.CreatePatient)
	write.POST("/patients/validate", h.ValidatePatient)
	write.PUT("/patients/:id", h.UpdatePatient)
	write.DELETE("/patients/:id", h.DeletePatient)

	// The active-patient selection belongs to the caller's own session.
	api.GET("/session/active-patient", h.GetActive)
	api.PUT("/session/active-patient", h.SetActive)
	api.DELETE("/session/active-patient", h.ClearActive)
}

// BindValues decodes a JSON form body. Path and query parameters are not
// merged in.
func BindValues(c echo.Context) (form.Values, error) {
	v := form.Values{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &v); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}
	return v, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreatePatient(c echo.Context) error {
	v, err := BindValues(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), v)
	if err != nil {
		return apierr.From(err, "patient not found")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ValidatePatient(c echo.Context) error {
	v, err := BindValues(c)
	if err != nil {
		return err
	}
	if err := h.svc.Validate(v); err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, map[string]any{"valid": true})
}

func (h *Handler) DescribeForm(c echo.Context) error {
	return c.JSON(http.StatusOK, Schema.Describe())
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apierr.From(err, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	st := listing.FromContext(c, "status", "gender", "last_visit")
	res, err := h.svc.List(c.Request().Context(), st)
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	p := listing.FromContext(c)
	items, total, err := h.svc.Search(c.Request().Context(), SearchParams{
		Query:  c.QueryParam("q"),
		Status: c.QueryParam("status"),
		Gender: c.QueryParam("gender"),
		Limit:  p.PageSize,
		Offset: (p.Page - 1) * p.PageSize,
	})
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items, "total": total})
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	v, err := BindValues(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), id, v)
	if err != nil {
		return apierr.From(err, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return apierr.From(err, "")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetActive(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Active().Get(auth.UserIDFromContext(c.Request().Context())))
}

type selectRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) SetActive(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return apierr.From(apierr.Invalid("patient_id", "Patient is required"), "")
	}
	ctx := c.Request().Context()
	sel, err := h.svc.Select(ctx, auth.UserIDFromContext(ctx), req.PatientID)
	if err != nil {
		return apierr.From(err, "patient not found")
	}
	return c.JSON(http.StatusOK, sel)
}

func (h *Handler) ClearActive(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Active().Clear(auth.UserIDFromContext(c.Request().Context())))
}
