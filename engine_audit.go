package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/internal"
)

const (
	auditEventSessionCreated  = "session_created"
	auditEventSessionDeleted  = "session_deleted"
	auditEventSessionRenewed  = "session_renewed"
	auditEventClaimsUpdated   = "claims_updated"
	auditEventAuthorizeDenied = "authorize_denied"
	auditEventResolveFailed   = "resolve_failed"
	auditEventSessionCorrupt  = "session_corrupt"
	auditEventTokenInvalid    = "token_invalid"
)

// AuditErrorCode is the stable error label written to [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrUnauthenticated AuditErrorCode = "unauthenticated"
	auditErrUnauthorized    AuditErrorCode = "unauthorized"
	auditErrInvalidIdentity AuditErrorCode = "invalid_identity"
	auditErrInvalidToken    AuditErrorCode = "invalid_token"
	auditErrSessionNotFound AuditErrorCode = "session_not_found"
	auditErrCorruptSession  AuditErrorCode = "corrupt_session"
	auditErrStorage         AuditErrorCode = "storage_unavailable"
	auditErrCanceled        AuditErrorCode = "request_canceled"
	auditErrInternal        AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	key string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if key != "" {
		event.SessionID = internal.Fingerprint(key)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// auditErrorCode maps an engine error to its stable label. Engine errors
// wrap ErrUnauthenticated around the more specific cause, so the specific
// checks come first.
func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidIdentity):
		return auditErrInvalidIdentity
	case errors.Is(err, ErrMalformedClaims),
		errors.Is(err, ErrDeserialize):
		return auditErrCorruptSession
	case errors.Is(err, context.Canceled):
		return auditErrCanceled
	case errors.Is(err, ErrStorage):
		return auditErrStorage
	default:
		return auditErrInternal
	}
}
