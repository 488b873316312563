package reference

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/apierr"
	"github.com/caretrack/caretrack/internal/platform/auth"
)

// Handler serves the read side of the reference data. Writes go through
// the admin screens.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	read.GET("/providers", h.ListProviders)
	read.GET("/appointment-types", h.ListTypes)
	read.GET("/appointment-statuses", h.ListStatuses)
}

func (h *Handler) ListProviders(c echo.Context) error {
	ctx := c.Request().Context()
	if v := c.QueryParam("available"); v != "" {
		avail, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid available flag")
		}
		if avail {
			items, err := h.svc.AvailableProviders(ctx)
			if err != nil {
				return apierr.From(err, "")
			}
			return c.JSON(http.StatusOK, items)
		}
	}
	items, err := h.svc.Providers.List(ctx)
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListTypes(c echo.Context) error {
	items, err := h.svc.Types.List(c.Request().Context())
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListStatuses(c echo.Context) error {
	items, err := h.svc.Statuses.List(c.Request().Context())
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, items)
}
