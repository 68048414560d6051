package goSession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/authz"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/session"
	"github.com/google/uuid"
)

// Login creates a session for req and returns the client token.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if req.UserID == uuid.Nil {
		e.metricInc(MetricSessionCreateFailure)
		return nil, fmt.Errorf("%w: nil user id", ErrInvalidIdentity)
	}
	if !req.Role.Valid() {
		e.metricInc(MetricSessionCreateFailure)
		return nil, fmt.Errorf("%w: %s", role.ErrUnknownRole, req.Role)
	}

	state, err := buildState(req.UserID, req.Role, req.Extra)
	if err != nil {
		e.metricInc(MetricSessionCreateFailure)
		return nil, err
	}

	key, expiresAt, err := e.store.Create(ctx, state, e.config.Session.TTL)
	if err != nil {
		e.metricInc(MetricSessionCreateFailure)
		if errors.Is(err, ErrStorage) {
			e.metricInc(MetricStorageFailure)
		}
		e.emitAudit(ctx, auditEventSessionCreated, false, req.UserID.String(), "", err, nil)
		return nil, err
	}

	token, err := e.tokenForKey(key)
	if err != nil {
		e.metricInc(MetricSessionCreateFailure)
		if delErr := e.store.Delete(ctx, key); delErr != nil {
			e.logger.WarnContext(ctx, "orphaned session after seal failure", "error", delErr)
		}
		return nil, err
	}

	principal := authz.Principal{ID: req.UserID, Role: req.Role}
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, req.UserID.String(), key, nil, func() map[string]string {
		return map[string]string{"role": req.Role.String()}
	})

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: principal,
	}, nil
}

// Logout deletes the session behind token. It succeeds when the session is
// already gone or the token is unusable, so repeated logouts are harmless.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	e.metricInc(MetricLogout)

	key, err := e.keyFromToken(ctx, token)
	if err != nil {
		return nil
	}

	err = e.store.Delete(ctx, key)
	switch {
	case err == nil:
		e.metricInc(MetricSessionDeleted)
		e.emitAudit(ctx, auditEventSessionDeleted, true, "", key, nil, nil)
		return nil
	case errors.Is(err, ErrSessionNotFound):
		e.metricInc(MetricSessionNotFound)
		return nil
	default:
		e.recordFailure(ctx, auditEventSessionDeleted, key, err)
		return err
	}
}

// Touch extends the session behind token by the configured TTL and returns
// the new expiry.
func (e *Engine) Touch(ctx context.Context, token string) (time.Time, error) {
	if e == nil {
		return time.Time{}, ErrEngineNotReady
	}
	key, err := e.keyFromToken(ctx, token)
	if err != nil {
		return time.Time{}, err
	}

	expiresAt, err := e.store.RenewTTL(ctx, key, e.config.Session.TTL)
	if err != nil {
		e.recordFailure(ctx, auditEventSessionRenewed, key, err)
		return time.Time{}, sessionErr(err)
	}
	e.metricInc(MetricSessionRenewed)
	return expiresAt, nil
}

// UpdateClaims replaces the extra claims of the session behind token and
// restarts its TTL. Identity claims are preserved.
func (e *Engine) UpdateClaims(ctx context.Context, token string, extra map[string]string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	key, err := e.keyFromToken(ctx, token)
	if err != nil {
		return err
	}

	p, err := e.resolver.Resolve(ctx, key)
	if err != nil {
		e.recordFailure(ctx, auditEventClaimsUpdated, key, err)
		return err
	}

	state, err := buildState(p.ID, p.Role, extra)
	if err != nil {
		return err
	}
	if err := e.store.Update(ctx, key, state, e.config.Session.TTL); err != nil {
		e.recordFailure(ctx, auditEventClaimsUpdated, key, err)
		return sessionErr(err)
	}

	e.metricInc(MetricSessionUpdated)
	e.emitAudit(ctx, auditEventClaimsUpdated, true, p.ID.String(), key, nil, nil)
	return nil
}

// Inspect returns the principal, claims and timestamps of the session
// behind token.
func (e *Engine) Inspect(ctx context.Context, token string) (*SessionInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	key, err := e.keyFromToken(ctx, token)
	if err != nil {
		return nil, err
	}

	snap, err := e.store.Inspect(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			e.metricInc(MetricSessionMissing)
		} else {
			e.recordFailure(ctx, auditEventResolveFailed, key, err)
		}
		return nil, sessionErr(err)
	}
	e.metricInc(MetricSessionLoaded)

	p, err := authz.PrincipalFromState(snap.State)
	if err != nil {
		e.recordFailure(ctx, auditEventResolveFailed, key, err)
		return nil, err
	}

	return &SessionInfo{
		Principal: p,
		Claims:    snap.State.Clone(),
		CreatedAt: snap.CreatedAt,
		ExpiresAt: snap.ExpiresAt,
	}, nil
}

func buildState(id uuid.UUID, r role.Role, extra map[string]string) (session.State, error) {
	state := authz.Claims(id, r)
	for name, value := range extra {
		if name == authz.ClaimUserID || name == authz.ClaimRoleID {
			return nil, fmt.Errorf("%w: %s", ErrReservedClaim, name)
		}
		state[name] = value
	}
	return state, nil
}

// sessionErr folds a missing session into ErrUnauthenticated while keeping
// the original cause reachable through errors.Is.
func sessionErr(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return err
}
