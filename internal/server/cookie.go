package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/practicelog/internal/shared"
)

// CookieHelper manages the session cookie.
type CookieHelper struct {
	name   string
	secure bool
	maxAge time.Duration
}

// NewCookieHelper creates a new cookie helper with the given configuration.
func NewCookieHelper(config shared.SessionConfig) *CookieHelper {
	name := config.CookieName
	if name == "" {
		name = "practice_session"
	}
	return &CookieHelper{name: name, secure: config.SecureCookie, maxAge: config.Lifetime()}
}

// Set writes the session cookie.
func (h *CookieHelper) Set(w http.ResponseWriter, token string) {
	h.setCookie(w, token, int(h.maxAge.Seconds()))
}

// Clear removes the session cookie.
func (h *CookieHelper) Clear(w http.ResponseWriter) {
	h.setCookie(w, "", -1)
}

// Token returns the session token from the cookie, falling back to an
// "Authorization: Bearer" header for non-browser clients.
func (h *CookieHelper) Token(r *http.Request) string {
	if cookie, err := r.Cookie(h.name); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func (h *CookieHelper) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
