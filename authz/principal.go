package authz

import (
	"fmt"

	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/session"
	"github.com/google/uuid"
)

// Claim names read by the resolver.
const (
	ClaimUserID = "user_id"
	ClaimRoleID = "role_id"
)

// Principal is the identity resolved from a session for one request.
type Principal struct {
	ID   uuid.UUID
	Role role.Role
}

func (p Principal) String() string {
	return p.ID.String() + "/" + p.Role.String()
}

// Claims returns a session state carrying the identity claims for id and r.
func Claims(id uuid.UUID, r role.Role) session.State {
	return session.State{
		ClaimUserID: id.String(),
		ClaimRoleID: r.Claim(),
	}
}

// PrincipalFromState extracts the identity claims from a session state.
//
// A missing claim yields [ErrUnauthenticated]. A claim that is present but
// unparsable yields [ErrMalformedClaims] joined with codec.ErrDeserialize. A
// role code that parses but is unknown maps to role.Guest.
func PrincipalFromState(state session.State) (Principal, error) {
	rawID, ok := state.Get(ClaimUserID)
	if !ok {
		return Principal{}, fmt.Errorf("%w: missing %s claim", ErrUnauthenticated, ClaimUserID)
	}
	rawRole, ok := state.Get(ClaimRoleID)
	if !ok {
		return Principal{}, fmt.Errorf("%w: missing %s claim", ErrUnauthenticated, ClaimRoleID)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w: %s: %v", ErrMalformedClaims, codec.ErrDeserialize, ClaimUserID, err)
	}
	r, err := role.ParseClaim(rawRole)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w: %s: %v", ErrMalformedClaims, codec.ErrDeserialize, ClaimRoleID, err)
	}

	return Principal{ID: id, Role: r}, nil
}
