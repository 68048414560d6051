package authz

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/session"
)

// SessionLoader is the read side of a session store. *session.Store
// satisfies it.
type SessionLoader interface {
	Load(ctx context.Context, key string) (session.State, bool, error)
}

// Resolver resolves session keys to principals. It holds no per-request state
// and is safe for concurrent use.
type Resolver struct {
	sessions SessionLoader
}

// NewResolver creates a Resolver over sessions.
func NewResolver(sessions SessionLoader) *Resolver {
	return &Resolver{sessions: sessions}
}

// Resolve loads the session under key and returns its principal.
//
// Absent or expired sessions and sessions without identity claims return
// [ErrUnauthenticated]. Storage and decode failures are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, key string) (Principal, error) {
	state, ok, err := r.sessions.Load(ctx, key)
	if errors.Is(err, session.ErrNotFound) {
		return Principal{}, ErrUnauthenticated
	}
	if err != nil {
		return Principal{}, err
	}
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	return PrincipalFromState(state)
}

// Require resolves key and evaluates policy in one step.
func (r *Resolver) Require(ctx context.Context, key string, policy Policy) (Authorized, error) {
	p, err := r.Resolve(ctx, key)
	if err != nil {
		return Authorized{}, err
	}
	return Authorize(p, policy)
}
