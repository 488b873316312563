// Package shell is the application frame around the domain pages: the route
// table, the authentication gate for page routes, the navigation model, the
// theme preference and the session summary.
package shell

import (
	"net/url"
	"strings"

	"github.com/caretrack/caretrack/internal/platform/auth"
)

// Route is a page the application can show.
type Route struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Title  string `json:"title"`
	Public bool   `json:"public"`
	// Prefix routes also match every path below Path.
	Prefix bool `json:"-"`
	// API is the endpoint serving the page's data.
	API string `json:"api,omitempty"`
}

// NotFound is what Resolve returns for paths outside the table.
var NotFound = Route{Name: "not-found", Path: "*", Title: "Page Not Found"}

var routes = []Route{
	{Name: "home", Path: "/", Title: "Dashboard"},
	{Name: "patients", Path: "/patients", Title: "Patients", API: "/api/v1/patients"},
	{Name: "appointments", Path: "/appointments", Title: "Appointments", API: "/api/v1/appointments"},
	{Name: "records", Path: "/records", Title: "Medical Records", API: "/api/v1/medical-records"},
	{Name: "help", Path: "/help", Title: "Help Center", Prefix: true, API: "/api/v1/help"},
	{Name: "admin", Path: "/admin", Title: "Administration", API: "/api/v1/admin"},
	{Name: "admin-patients", Path: "/admin/patients", Title: "Manage Patients"},
	{Name: "admin-providers", Path: "/admin/providers", Title: "Manage Providers"},
	{Name: "admin-appointment-types", Path: "/admin/appointment-types", Title: "Manage Appointment Types"},
	{Name: "admin-appointment-statuses", Path: "/admin/appointment-statuses", Title: "Manage Appointment Statuses"},
	{Name: "login", Path: "/login", Title: "Sign In", Public: true},
	{Name: "signup", Path: "/signup", Title: "Create Account", Public: true},
	{Name: "callback", Path: "/callback", Title: "Signing In", Public: true},
	{Name: "error", Path: "/error", Title: "Something Went Wrong", Public: true},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Resolve maps a request path to its route. A trailing slash is ignored and
// any query string is dropped.
func Resolve(path string) Route {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	for _, r := range routes {
		if r.Path == path || (r.Prefix && strings.HasPrefix(path, r.Path+"/")) {
			return r
		}
	}
	return NotFound
}

// DataURL is the API request behind target. For prefix routes the path
// below the route and the query string carry over, so /help/search?q=x
// maps to /api/v1/help/search?q=x.
func DataURL(target string) string {
	r := Resolve(target)
	if r.API == "" {
		return ""
	}
	if !r.Prefix {
		return r.API
	}
	path, query := target, ""
	if i := strings.IndexByte(target, '?'); i >= 0 {
		path, query = target[:i], target[i:]
	}
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	return r.API + strings.TrimPrefix(path, r.Path) + query
}

// Decision is the outcome of gating one page request.
type Decision struct {
	Route    Route  `json:"route"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

// Gate decides whether target (path plus optional query) may be shown. Public
// pages are always shown. Anything else, unknown paths included, needs a
// signed in user and otherwise redirects to the login page carrying target
// along.
func Gate(target string, authenticated bool) Decision {
	r := Resolve(target)
	if authenticated || r.Public || auth.IsPublicPage(r.Path) {
		return Decision{Route: r, Allowed: true}
	}
	return Decision{Route: r, Redirect: LoginURL(target)}
}

// LoginURL is the login page that returns to target afterwards.
func LoginURL(target string) string {
	if target == "" {
		return "/login"
	}
	return "/login?redirect=" + url.QueryEscape(target)
}
