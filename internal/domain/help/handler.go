package help

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/apierr"
	"github.com/caretrack/caretrack/internal/platform/listing"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the Help Center for every signed in user.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/help", h.ListAreas)
	api.GET("/help/guides", h.ListGuides)
	api.GET("/help/guides/:id", h.GetGuide)
	api.GET("/help/faqs", h.ListFAQs)
	api.GET("/help/faqs/:category", h.ListFAQs)
	api.GET("/help/troubleshooting", h.ListTopics)
	api.GET("/help/troubleshooting/:id", h.GetTopic)
	api.GET("/help/search", h.Search)
}

func (h *Handler) ListAreas(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"areas": h.svc.Areas()})
}

func (h *Handler) ListGuides(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"guides": h.svc.Guides()})
}

func (h *Handler) GetGuide(c echo.Context) error {
	g, err := h.svc.Guide(c.Param("id"))
	if err != nil {
		return apierr.From(err, "guide not found")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) ListFAQs(c echo.Context) error {
	category := c.Param("category")
	if category == "" {
		category = c.QueryParam("category")
	}
	cats, err := h.svc.FAQs(category)
	if err != nil {
		return apierr.From(err, "faq category not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"categories": cats})
}

func (h *Handler) ListTopics(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"topics": h.svc.Troubleshooting()})
}

func (h *Handler) GetTopic(c echo.Context) error {
	t, err := h.svc.Topic(c.Param("id"))
	if err != nil {
		return apierr.From(err, "topic not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Search(c echo.Context) error {
	res, err := h.svc.Search(listing.FromContext(c, "kind"))
	if err != nil {
		return apierr.From(err, "")
	}
	return c.JSON(http.StatusOK, res)
}
