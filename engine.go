package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrEthical07/goSession/authz"
	"github.com/MrEthical07/goSession/seal"
	"github.com/MrEthical07/goSession/session"
	"github.com/benbjohnson/clock"
)

// Engine ties the session store, principal resolver and optional token
// sealer together. It is safe for concurrent use once built.
type Engine struct {
	config   Config
	store    *session.Store
	resolver *authz.Resolver
	sealer   *seal.Sealer
	audit    *auditDispatcher
	metrics  *Metrics
	clock    clock.Clock
	logger   *slog.Logger
}

// Close flushes and stops the audit dispatcher. The session backend is owned
// by the caller and is left open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// Store exposes the underlying session store for callers that manage raw
// session keys directly.
func (e *Engine) Store() *session.Store {
	if e == nil {
		return nil
	}
	return e.store
}

// Resolver exposes the principal resolver over the engine's store.
func (e *Engine) Resolver() *authz.Resolver {
	if e == nil {
		return nil
	}
	return e.resolver
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// keyFromToken recovers the session key a client token carries. Without a
// sealer the token is the key.
func (e *Engine) keyFromToken(ctx context.Context, token string) (string, error) {
	if e.sealer == nil {
		return token, nil
	}
	key, err := e.sealer.Open(token)
	if err != nil {
		e.metricInc(MetricTokenInvalid)
		e.emitAudit(ctx, auditEventTokenInvalid, false, "", "", err, nil)
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return key, nil
}

func (e *Engine) tokenForKey(key string) (string, error) {
	if e.sealer == nil {
		return key, nil
	}
	return e.sealer.Seal(key)
}

// recordFailure counts and audits a failed store or resolver call.
func (e *Engine) recordFailure(ctx context.Context, eventType, key string, err error) {
	switch {
	case errors.Is(err, ErrDeserialize):
		e.metricInc(MetricSessionCorrupt)
		e.logger.WarnContext(ctx, "session state undecodable", "error", err)
		e.emitAudit(ctx, auditEventSessionCorrupt, false, "", key, err, nil)
		return
	case errors.Is(err, context.Canceled):
		// caller went away; not a backend fault
	case errors.Is(err, ErrStorage):
		e.metricInc(MetricStorageFailure)
	case errors.Is(err, ErrSessionNotFound):
		e.metricInc(MetricSessionNotFound)
	case errors.Is(err, ErrUnauthenticated):
		e.metricInc(MetricResolveUnauthenticated)
	}
	e.emitAudit(ctx, eventType, false, "", key, err, nil)
}
