package middleware

import (
	"net/http"
	"strings"
)

// TokenSource extracts a session token from a request.
type TokenSource func(*http.Request) (string, bool)

// FromCookie reads the token from the named cookie.
func FromCookie(name string) TokenSource {
	return func(r *http.Request) (string, bool) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return "", false
		}
		return c.Value, true
	}
}

// FromBearer reads the token from an "Authorization: Bearer" header.
func FromBearer() TokenSource {
	return func(r *http.Request) (string, bool) {
		return bearerToken(r.Header.Get("Authorization"))
	}
}

// FirstOf tries each source in order.
func FirstOf(sources ...TokenSource) TokenSource {
	return func(r *http.Request) (string, bool) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			if token, ok := src(r); ok {
				return token, true
			}
		}
		return "", false
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
