package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/apierr"
	"github.com/caretrack/caretrack/internal/platform/form"
)

const nonceCookie = "caretrack_nonce"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/authorize", h.Authorize)
	api.GET("/auth/callback", h.Callback)
	api.POST("/auth/callback", h.Callback)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me, RequireAuth(nil))
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) Signup(c echo.Context) error {
	v := form.Values{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}
	sess, err := h.svc.Signup(c.Request().Context(), v)
	if err != nil {
		return mapError(err)
	}
	setSessionCookie(c, sess)
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid login body")
	}
	sess, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}
	setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, sess)
}

// Authorize sends the browser to the identity provider. The redirect
// parameter travels as state and comes back to Callback.
func (h *Handler) Authorize(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.svc.Initialize(ctx); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "identity provider unavailable").SetInternal(err)
	}
	p := h.svc.Provider()
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, ErrNoProvider.Error())
	}
	nonce, err := randomToken()
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name: nonceCookie, Value: nonce, Path: "/", HttpOnly: true,
		Secure: c.Scheme() == "https", SameSite: http.SameSiteNoneMode, MaxAge: 600,
	})
	callback := c.Scheme() + "://" + c.Request().Host + "/api/v1/auth/callback"
	return c.Redirect(http.StatusFound, p.LoginURL(h.svc.cfg.Audience, callback, SafeRedirect(c.QueryParam("redirect")), nonce))
}

// Callback accepts id_token and state from the query or a form post. On
// success it sets the session cookie and redirects to state when that is a
// local path, otherwise to /. Failures land on /error.
func (h *Handler) Callback(c echo.Context) error {
	idToken := c.FormValue("id_token")
	state := c.FormValue("state")
	if state == "" {
		state = c.FormValue("redirect")
	}
	var nonce string
	if ck, err := c.Cookie(nonceCookie); err == nil {
		nonce = ck.Value
	}
	c.SetCookie(&http.Cookie{Name: nonceCookie, Value: "", Path: "/", MaxAge: -1})

	sess, err := h.svc.OnAuthResult(c.Request().Context(), idToken, nonce)
	if err != nil {
		h.svc.logger.Warn().Err(err).Msg("identity callback rejected")
		return c.Redirect(http.StatusFound, "/error?reason="+url.QueryEscape("authentication failed"))
	}
	setSessionCookie(c, sess)
	return c.Redirect(http.StatusFound, SafeRedirect(state))
}

// Logout clears the session cookie and the session's server-side state.
func (h *Handler) Logout(c echo.Context) error {
	h.svc.Logout(UserIDFromContext(c.Request().Context()))
	c.SetCookie(&http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) Me(c echo.Context) error {
	p, _ := ProfileFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, p)
}

func setSessionCookie(c echo.Context, s *Session) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNoSigningKey):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "standalone login is disabled").SetInternal(err)
	}
	return apierr.From(err, "")
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
