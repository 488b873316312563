package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/platform/apierr"
	"github.com/caretrack/caretrack/internal/platform/auth"
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
	read.GET("/admin", h.Dashboard)
	read.GET("/admin/:entity", h.ListRows)
	read.GET("/admin/:entity/schema", h.Describe)
	read.GET("/admin/:entity/:id", h.GetRow)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/admin/:entity", h.CreateRow)
	write.PUT("/admin/:entity/:id", h.UpdateRow)
	write.DELETE("/admin/:entity/:id", h.DeleteRow)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Dashboard(c echo.Context) error {
	cards, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, cards)
}

func (h *Handler) Describe(c echo.Context) error {
	layout, err := h.svc.Layout(c.Param("entity"))
	if err != nil {
		return apierr.From(err, "unknown admin entity")
	}
	return c.JSON(http.StatusOK, layout)
}

// ListRows serves the entity table. toggle=<column> flips the sort the way
// a header click does.
func (h *Handler) ListRows(c echo.Context) error {
	st := listing.FromContext(c)
	if col := c.QueryParam("toggle"); col != "" {
		st = st.ToggleSort(col)
	}
	res, err := h.svc.Table(c.Request().Context(), c.Param("entity"), st)
	if err != nil {
		return apierr.From(err, "unknown admin entity")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetRow(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Get(c.Request().Context(), c.Param("entity"), id)
	if err != nil {
		return apierr.From(err, "record not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) CreateRow(c echo.Context) error {
	v, err := patient.BindValues(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Create(c.Request().Context(), c.Param("entity"), v)
	if err != nil {
		return apierr.From(err, "unknown admin entity")
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) UpdateRow(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	v, err := patient.BindValues(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Update(c.Request().Context(), c.Param("entity"), id, v)
	if err != nil {
		return apierr.From(err, "record not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteRow(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ok, err := h.svc.Delete(c.Request().Context(), c.Param("entity"), id)
	if err != nil {
		return apierr.From(err, "unknown admin entity")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	return c.NoContent(http.StatusNoContent)
}
