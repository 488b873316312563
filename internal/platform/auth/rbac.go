package auth

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

// Roles known to the practice. Admin passes every role check.
const (
	RoleAdmin     = "admin"
	RolePhysician = "physician"
	RoleNurse     = "nurse"
	RoleRegistrar = "registrar"
)

// RequireRole lets the request through when the caller holds any of roles.
// Anonymous callers get 401, signed-in callers without the role 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if !IsAuthenticated(ctx) {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if HasRole(RolesFromContext(ctx), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// HasRole reports whether granted covers any of required.
func HasRole(granted []string, required ...string) bool {
	if slices.Contains(granted, RoleAdmin) {
		return true
	}
	for _, r := range required {
		if slices.Contains(granted, r) {
			return true
		}
	}
	return false
}
