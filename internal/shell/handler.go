package shell

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/platform/auth"
)

// ActivePatients is the part of the active-patient store the shell reads.
type ActivePatients interface {
	Get(session string) patient.Selection
}

type Handler struct {
	active ActivePatients
}

func NewHandler(active ActivePatients) *Handler {
	return &Handler{active: active}
}

// RegisterRoutes mounts the session and shell endpoints on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/session", h.GetSession)
	api.POST("/session/theme/toggle", h.ToggleTheme)
	api.GET("/shell/nav", h.GetNav)
	api.GET("/shell/resolve", h.ResolvePath)
}

// RegisterPages mounts the gated page routes at the server root.
func (h *Handler) RegisterPages(e *echo.Echo) {
	e.GET("/*", h.Page)
}

// Session is what the frame needs to render around a page.
type Session struct {
	IsAuthenticated bool              `json:"is_authenticated"`
	User            *auth.Profile     `json:"user,omitempty"`
	ActivePatient   *patient.Summary  `json:"active_patient"`
	History         []patient.Summary `json:"history"`
	DarkMode        bool              `json:"dark_mode"`
}

func (h *Handler) session(c echo.Context) Session {
	s := Session{History: []patient.Summary{}, DarkMode: DarkMode(c.Request())}
	p, ok := auth.ProfileFromContext(c.Request().Context())
	if !ok {
		return s
	}
	s.IsAuthenticated = true
	s.User = &p
	sel := h.active.Get(p.ID)
	s.ActivePatient = sel.Active
	s.History = sel.History
	return s
}

func (h *Handler) GetSession(c echo.Context) error {
	c.Response().Header().Set("Accept-CH", ColorSchemeHint)
	return c.JSON(http.StatusOK, h.session(c))
}

func (h *Handler) ToggleTheme(c echo.Context) error {
	dark := !DarkMode(c.Request())
	c.SetCookie(ThemeCookieFor(dark))
	return c.JSON(http.StatusOK, map[string]bool{"dark_mode": dark})
}

func (h *Handler) GetNav(c echo.Context) error {
	ctx := c.Request().Context()
	current := c.QueryParam("path")
	if current == "" {
		current = "/"
	}
	return c.JSON(http.StatusOK, Nav(current, auth.RolesFromContext(ctx), auth.IsAuthenticated(ctx)))
}

// ResolvePath reports the route and gate decision for ?path= without
// redirecting.
func (h *Handler) ResolvePath(c echo.Context) error {
	target := c.QueryParam("path")
	if target == "" {
		target = "/"
	}
	return c.JSON(http.StatusOK, Gate(target, auth.IsAuthenticated(c.Request().Context())))
}

// Page is the payload of a page route.
type Page struct {
	Route   Route     `json:"route"`
	Data    string    `json:"data,omitempty"`
	Nav     []NavItem `json:"nav"`
	Session Session   `json:"session"`
}

// Page gates a page request. Anonymous requests for gated pages are sent to
// the login page; unknown pages answer 404 with the not-found route.
func (h *Handler) Page(c echo.Context) error {
	req := c.Request()
	if strings.HasPrefix(req.URL.Path, "/api/") {
		return echo.ErrNotFound
	}
	target := req.URL.Path
	if req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}
	ctx := req.Context()
	d := Gate(target, auth.IsAuthenticated(ctx))
	if !d.Allowed {
		return c.Redirect(http.StatusFound, d.Redirect)
	}
	c.Response().Header().Set("Accept-CH", ColorSchemeHint)
	status := http.StatusOK
	if d.Route == NotFound {
		status = http.StatusNotFound
	}
	return c.JSON(status, Page{
		Route:   d.Route,
		Data:    DataURL(target),
		Nav:     Nav(req.URL.Path, auth.RolesFromContext(ctx), auth.IsAuthenticated(ctx)),
		Session: h.session(c),
	})
}
