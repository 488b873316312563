// Package icon maps semantic icon names used by navigation and pages to
// icon asset names.
package icon

import "strings"

// Fallback is the asset used for empty or unknown names.
const Fallback = "user"

var assets = map[string]string{
	"user":         "user",
	"moon":         "moon",
	"sun":          "sun",
	"menu":         "menu",
	"heart":        "heart",
	"arrowright":   "arrow-right",
	"clock":        "clock",
	"calendar":     "calendar",
	"filetext":     "file-text",
	"barchart":     "bar-chart",
	"activity":     "activity",
	"dollarsign":   "dollar-sign",
	"users":        "users",
	"building":     "building",
	"chevronright": "chevron-right",
	"check":        "check",
	"xicon":        "x",
	"alertcircle":  "alert-circle",
	"infoicon":     "info",
	"search":       "search",
	"plus":         "plus",
	"edit":         "edit",
	"trash2":       "trash-2",
	"filter":       "filter",
	"eye":          "eye",
	"userplus":     "user-plus",
	"pill":         "pill",
	"stethoscope":  "stethoscope",
	"flask":        "flask",
	"scissors":     "scissors",
	"scan":         "scan",
	"syringe":      "syringe",
	"logout":       "log-out",
	"home":         "home",
	"helpcircle":   "help-circle",
	"settings":     "settings",
	"tag":          "tag",
	"checkcircle":  "check-circle",
}

// Resolve returns the asset for name. It tries an exact key, then the
// lower-cased name without dashes, then the name with dashes, spaces and
// underscores removed.
func Resolve(name string) string {
	if a, ok := lookup(name); ok {
		return a
	}
	return Fallback
}

// Known reports whether name resolves without falling back.
func Known(name string) bool {
	_, ok := lookup(name)
	return ok
}

func lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if a, ok := assets[name]; ok {
		return a, true
	}
	if a, ok := assets[strings.ToLower(strings.ReplaceAll(name, "-", ""))]; ok {
		return a, true
	}
	squashed := strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '\t', '\n':
			return -1
		}
		return r
	}, name)
	a, ok := assets[strings.ToLower(squashed)]
	return a, ok
}
