package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the client-held credential carrying the admin session
const SessionCookieName = "admin_session"

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain   string // Empty string = current host only
	Secure   bool   // HTTPS only; true in production
	SameSite string // "strict", "lax", or "none"
}

// DefaultCookieConfig returns the session cookie attributes for env
func DefaultCookieConfig(env, domain string) CookieConfig {
	return CookieConfig{
		Domain:   domain,
		Secure:   env == "production",
		SameSite: "lax",
	}
}

// SetSessionCookie attaches the session credential as an httpOnly cookie
// scoped to the whole site
func SetSessionCookie(w http.ResponseWriter, token string, now time.Time, lifetime time.Duration, config CookieConfig) {
	maxAge := int(lifetime / time.Second)
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  now.Add(lifetime),
		MaxAge:   maxAge,
		HttpOnly: true, // not readable by page scripts
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie overwrites the session cookie so the client discards it
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1, // Negative MaxAge deletes the cookie
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
	http.SetCookie(w, cookie)
}

// GetSessionCookie retrieves the session credential, or "" if absent
func GetSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// parseSameSite converts string to http.SameSite constant
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
