package authz

import (
	"fmt"

	"github.com/MrEthical07/goSession/role"
	"github.com/google/uuid"
)

// Authorized is a principal that has passed a policy. Only [Authorize] and
// [Resolver.Require] produce a granted value; the zero value is not a grant
// and reports true from [Authorized.IsZero].
type Authorized struct {
	principal Principal
	policy    Policy
}

// IsZero reports whether a is the zero value, i.e. no policy was passed.
func (a Authorized) IsZero() bool { return a.policy.kind == kindNone }

// Principal returns the authorized identity.
func (a Authorized) Principal() Principal { return a.principal }

// ID returns the authorized identity's UUID.
func (a Authorized) ID() uuid.UUID { return a.principal.ID }

// Role returns the authorized identity's role.
func (a Authorized) Role() role.Role { return a.principal.Role }

// Policy returns the policy that admitted the principal.
func (a Authorized) Policy() Policy { return a.policy }

// Authorize evaluates policy against p. A denial returns [ErrUnauthorized].
func Authorize(p Principal, policy Policy) (Authorized, error) {
	if !policy.Allows(p) {
		return Authorized{}, fmt.Errorf("%w: %s denied for role %s", ErrUnauthorized, policy.Kind(), p.Role)
	}
	return Authorized{principal: p, policy: policy}, nil
}
