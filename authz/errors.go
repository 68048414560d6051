package authz

import "errors"

var (
	// ErrUnauthenticated means no valid session identifies the caller.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the caller is known but the policy denies access.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidIdentity means an identity supplied to a policy, typically
	// from a request path, is not a well-formed UUID.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrMalformedClaims means a live session carries identity claims that
	// cannot be parsed. It is always joined with codec.ErrDeserialize.
	ErrMalformedClaims = errors.New("malformed identity claims")
)
