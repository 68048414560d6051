package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/authz"
)

// Resolve returns the principal of the session behind token. Absent,
// expired and identity-less sessions yield ErrUnauthenticated; undecodable
// claims and backend failures are returned as hard errors.
func (e *Engine) Resolve(ctx context.Context, token string) (authz.Principal, error) {
	if e == nil {
		return authz.Principal{}, ErrEngineNotReady
	}
	key, err := e.keyFromToken(ctx, token)
	if err != nil {
		e.metricInc(MetricResolveUnauthenticated)
		return authz.Principal{}, err
	}
	return e.resolveKey(ctx, key)
}

// Authorize resolves token and evaluates policy against the principal.
func (e *Engine) Authorize(ctx context.Context, token string, policy authz.Policy) (authz.Authorized, error) {
	if e == nil {
		return authz.Authorized{}, ErrEngineNotReady
	}
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricAuthorizeLatency, time.Since(start))
		}
	}()

	key, err := e.keyFromToken(ctx, token)
	if err != nil {
		e.metricInc(MetricResolveUnauthenticated)
		return authz.Authorized{}, err
	}
	p, err := e.resolveKey(ctx, key)
	if err != nil {
		return authz.Authorized{}, err
	}

	granted, err := authz.Authorize(p, policy)
	if err != nil {
		e.metricInc(MetricAuthorizeDenied)
		e.emitAudit(ctx, auditEventAuthorizeDenied, false, p.ID.String(), key, err, func() map[string]string {
			return map[string]string{
				"policy": policy.String(),
				"role":   p.Role.String(),
			}
		})
		return authz.Authorized{}, err
	}

	e.metricInc(MetricAuthorizeGranted)
	return granted, nil
}

// AuthorizeOwner authorizes token against OwnerOrAdmin(rawOwner). A
// rawOwner that is not a UUID fails with ErrInvalidIdentity before any
// session lookup.
func (e *Engine) AuthorizeOwner(ctx context.Context, token, rawOwner string) (authz.Authorized, error) {
	if e == nil {
		return authz.Authorized{}, ErrEngineNotReady
	}
	policy, err := authz.OwnerOrAdmin(rawOwner)
	if err != nil {
		e.metricInc(MetricInvalidIdentity)
		return authz.Authorized{}, err
	}
	return e.Authorize(ctx, token, policy)
}

func (e *Engine) resolveKey(ctx context.Context, key string) (authz.Principal, error) {
	p, err := e.resolver.Resolve(ctx, key)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			e.metricInc(MetricSessionMissing)
		}
		e.recordFailure(ctx, auditEventResolveFailed, key, err)
		return authz.Principal{}, err
	}
	e.metricInc(MetricSessionLoaded)

	if e.config.Session.SlidingRenewal {
		e.slide(ctx, key)
	}
	return p, nil
}

// slide extends a session that was just read. A failed renewal does not
// fail the request: the session was live when it was read.
func (e *Engine) slide(ctx context.Context, key string) {
	_, err := e.store.RenewTTL(ctx, key, e.config.Session.TTL)
	if err == nil {
		e.metricInc(MetricSessionRenewed)
		return
	}
	if errors.Is(err, ErrStorage) {
		e.metricInc(MetricStorageFailure)
	}
	e.logger.WarnContext(ctx, "sliding renewal failed", "error", err)
}
