package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths are API routes reachable without a session.
var publicPaths = map[string]bool{
	"/health":                      true,
	"/health/db":                   true,
	"/api/v1/auth/signup":          true,
	"/api/v1/auth/login":           true,
	"/api/v1/auth/callback":        true,
	"/api/v1/auth/logout":          true,
	"/api/v1/session":              true,
	"/api/v1/session/theme/toggle": true,
	"/api/v1/shell/nav":            true,
	"/api/v1/shell/resolve":        true,
}

// publicPages are the page routes outside the gate.
var publicPages = map[string]bool{
	"/login":    true,
	"/signup":   true,
	"/callback": true,
	"/error":    true,
	"/health":   true,
}

// AuthSkipper reports whether the matched route is public.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}

// IsPublicPage reports whether a page path is reachable signed out. Trailing
// slashes are ignored.
func IsPublicPage(path string) bool {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return publicPages[path]
}
