package shell

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// ThemeCookie persists the dark mode preference.
	ThemeCookie = "darkMode"
	// ColorSchemeHint is the client hint consulted when no preference is stored.
	ColorSchemeHint = "Sec-CH-Prefers-Color-Scheme"
)

// DarkMode reports the dark mode preference of r. A stored cookie wins over
// the client hint.
func DarkMode(r *http.Request) bool {
	if ck, err := r.Cookie(ThemeCookie); err == nil {
		if v, err := strconv.ParseBool(ck.Value); err == nil {
			return v
		}
	}
	return strings.EqualFold(strings.Trim(r.Header.Get(ColorSchemeHint), `"`), "dark")
}

// ThemeCookieFor builds the cookie storing dark.
func ThemeCookieFor(dark bool) *http.Cookie {
	return &http.Cookie{
		Name:     ThemeCookie,
		Value:    strconv.FormatBool(dark),
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		SameSite: http.SameSiteLaxMode,
	}
}
