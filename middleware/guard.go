package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/authz"
	"github.com/go-chi/chi/v5"
)

// Authorizer is the slice of *goSession.Engine the guards call.
type Authorizer interface {
	Authorize(ctx context.Context, token string, policy authz.Policy) (authz.Authorized, error)
	AuthorizeOwner(ctx context.Context, token, rawOwner string) (authz.Authorized, error)
}

type authorizedContextKey struct{}

// AuthorizedFromContext returns the grant injected by [Require] or
// [RequireOwnerOrAdmin]. ok is false when no guard ran for the request.
func AuthorizedFromContext(ctx context.Context) (authz.Authorized, bool) {
	granted, ok := ctx.Value(authorizedContextKey{}).(authz.Authorized)
	if !ok || granted.IsZero() {
		return authz.Authorized{}, false
	}
	return granted, true
}

// Require admits requests whose session satisfies policy.
func Require(a Authorizer, src TokenSource, policy authz.Policy) func(http.Handler) http.Handler {
	return guard(a, src, func(r *http.Request, token string) (authz.Authorized, error) {
		return a.Authorize(r.Context(), token, policy)
	})
}

// RequireOwnerOrAdmin admits admins and the user whose id is the chi URL
// parameter param.
func RequireOwnerOrAdmin(a Authorizer, src TokenSource, param string) func(http.Handler) http.Handler {
	return guard(a, src, func(r *http.Request, token string) (authz.Authorized, error) {
		return a.AuthorizeOwner(r.Context(), token, chi.URLParam(r, param))
	})
}

func guard(a Authorizer, src TokenSource, check func(*http.Request, string) (authz.Authorized, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a == nil || src == nil {
				writeStatus(w, http.StatusInternalServerError)
				return
			}

			r = r.WithContext(RequestContext(r))

			token, ok := src(r)
			if !ok {
				writeStatus(w, http.StatusUnauthorized)
				return
			}

			granted, err := check(r, token)
			if err != nil {
				writeStatus(w, StatusFor(err))
				return
			}

			ctx := context.WithValue(r.Context(), authorizedContextKey{}, granted)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestContext returns r's context carrying the client IP and User-Agent
// for audit events.
func RequestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ctx = goSession.WithClientIP(ctx, host)
	} else if r.RemoteAddr != "" {
		ctx = goSession.WithClientIP(ctx, r.RemoteAddr)
	}
	if ua := r.UserAgent(); ua != "" {
		ctx = goSession.WithUserAgent(ctx, ua)
	}
	return ctx
}

// StatusFor maps an engine error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, goSession.ErrInvalidIdentity):
		return http.StatusBadRequest
	case errors.Is(err, goSession.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, goSession.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeStatus(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}
