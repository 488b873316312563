package shell

import (
	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/internal/platform/icon"
)

// NavItem is one entry of the side navigation.
type NavItem struct {
	Title  string `json:"title"`
	Path   string `json:"path"`
	Icon   string `json:"icon"`
	Active bool   `json:"active"`
}

type navEntry struct {
	title, path, icon string
	roles             []string
}

var navigation = []navEntry{
	{title: "Dashboard", path: "/", icon: "home"},
	{title: "Patients", path: "/patients", icon: "users"},
	{title: "Appointments", path: "/appointments", icon: "calendar"},
	{title: "Records", path: "/records", icon: "file-text"},
	{title: "Help", path: "/help", icon: "help-circle"},
	{title: "Admin", path: "/admin", icon: "settings", roles: []string{auth.RoleAdmin}},
}

// Nav returns the navigation visible to roles with the entry for current
// marked active. Anonymous users get no entries.
func Nav(current string, roles []string, authenticated bool) []NavItem {
	out := []NavItem{}
	if !authenticated {
		return out
	}
	here := Resolve(current)
	for _, n := range navigation {
		if len(n.roles) > 0 && !auth.HasRole(roles, n.roles...) {
			continue
		}
		out = append(out, NavItem{
			Title:  n.title,
			Path:   n.path,
			Icon:   icon.Resolve(n.icon),
			Active: here.Path == n.path || (n.path != "/" && hasSection(here.Path, n.path)),
		})
	}
	return out
}

func hasSection(path, section string) bool {
	return len(path) > len(section) && path[:len(section)] == section && path[len(section)] == '/'
}
