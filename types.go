package goSession

import (
	"time"

	"github.com/MrEthical07/goSession/authz"
	"github.com/MrEthical07/goSession/role"
	"github.com/google/uuid"
)

// LoginResult is returned by [Engine.Login]. Token is what the client
// presents on later requests: the sealed token when sealing is enabled,
// otherwise the raw session key.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Principal authz.Principal
}

// LoginRequest describes the identity a new session is bound to. Extra
// claims are stored alongside the identity claims and must not reuse their
// names.
type LoginRequest struct {
	UserID uuid.UUID
	Role   role.Role
	Extra  map[string]string
}

// SessionInfo describes a live session without exposing its key.
type SessionInfo struct {
	Principal authz.Principal
	Claims    map[string]string
	CreatedAt time.Time
	ExpiresAt time.Time
}
