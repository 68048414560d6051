package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/authz"
	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/seal"
	"github.com/MrEthical07/goSession/session"
)

var (
	// ErrUnauthenticated is returned when no valid session identifies the caller.
	ErrUnauthenticated = authz.ErrUnauthenticated
	// ErrUnauthorized is returned when the caller is known but the policy denies.
	ErrUnauthorized = authz.ErrUnauthorized
	// ErrInvalidIdentity is returned when a requested owner identity is not a UUID.
	ErrInvalidIdentity = authz.ErrInvalidIdentity
	// ErrMalformedClaims is returned when stored identity claims cannot be decoded.
	ErrMalformedClaims = authz.ErrMalformedClaims
	// ErrSessionNotFound is returned when a session is absent or expired.
	ErrSessionNotFound = session.ErrNotFound
	// ErrStorage is returned when the session backend is unreachable or fails.
	ErrStorage = session.ErrStorage
	// ErrSerialize is returned when session state cannot be encoded.
	ErrSerialize = codec.ErrSerialize
	// ErrDeserialize is returned when a stored session blob cannot be decoded.
	ErrDeserialize = codec.ErrDeserialize
	// ErrTokenInvalid is returned when a signed client token fails verification.
	ErrTokenInvalid = seal.ErrTokenInvalid
	// ErrReservedClaim is returned when extra claims try to overwrite identity claims.
	ErrReservedClaim = errors.New("reserved claim name")
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
