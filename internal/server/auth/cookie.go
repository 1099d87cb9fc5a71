package auth

import (
	"net/http"
	"time"
)

const CookieName = "agrocms_session"

// CookieOptions control the session cookie attributes that vary by
// deployment. HttpOnly, SameSite=Lax and Path=/ are fixed.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetSessionCookie writes the signed session token with an absolute expiry.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  expires.UTC(),
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie instructs the client to drop the cookie.
func ClearSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken returns the raw cookie value, or "" when absent.
func SessionToken(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
