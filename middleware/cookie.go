package middleware

import (
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// SetSessionCookie writes token as the session cookie described by cfg.
func SetSessionCookie(w http.ResponseWriter, cfg goSession.CookieConfig, token string, expiresAt time.Time) {
	c := baseCookie(cfg)
	c.Value = token
	c.Expires = expiresAt
	if maxAge := int(time.Until(expiresAt).Seconds()); maxAge > 0 {
		c.MaxAge = maxAge
	} else {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// ClearSessionCookie instructs the client to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg goSession.CookieConfig) {
	c := baseCookie(cfg)
	c.Expires = time.Unix(0, 0)
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func baseCookie(cfg goSession.CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Name,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HTTPOnly,
		SameSite: cfg.SameSite,
	}
}
