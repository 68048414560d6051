package authz

import (
	"fmt"

	"github.com/MrEthical07/goSession/role"
	"github.com/google/uuid"
)

// Kind tags the variant held by a [Policy].
type Kind uint8

const (
	kindNone Kind = iota
	// KindAdminOnly admits bypass roles only.
	KindAdminOnly
	// KindAnyUser admits role.User and bypass roles.
	KindAnyUser
	// KindAnyPrincipal admits every resolved principal, including guests.
	KindAnyPrincipal
	// KindOwnerOrAdmin admits the owning identity and bypass roles.
	KindOwnerOrAdmin
)

func (k Kind) String() string {
	switch k {
	case KindAdminOnly:
		return "admin_only"
	case KindAnyUser:
		return "any_user"
	case KindAnyPrincipal:
		return "any_principal"
	case KindOwnerOrAdmin:
		return "owner_or_admin"
	default:
		return "none"
	}
}

// Policy is an access requirement. Build one with [AdminOnly], [AnyUser],
// [AnyPrincipal], [OwnerOrAdmin], or [OwnerOrAdminID].
type Policy struct {
	kind  Kind
	owner uuid.UUID
}

// AdminOnly admits only bypass roles.
func AdminOnly() Policy { return Policy{kind: KindAdminOnly} }

// AnyUser admits regular users and bypass roles, not guests.
func AnyUser() Policy { return Policy{kind: KindAnyUser} }

// AnyPrincipal admits any caller with a valid session.
func AnyPrincipal() Policy { return Policy{kind: KindAnyPrincipal} }

// OwnerOrAdmin admits the identity named by expected, or a bypass role.
// expected must be a UUID; otherwise [ErrInvalidIdentity] is returned and no
// principal is ever evaluated.
func OwnerOrAdmin(expected string) (Policy, error) {
	id, err := uuid.Parse(expected)
	if err != nil {
		return Policy{}, fmt.Errorf("%w: %q", ErrInvalidIdentity, expected)
	}
	return OwnerOrAdminID(id), nil
}

// OwnerOrAdminID is [OwnerOrAdmin] for an already parsed identity.
func OwnerOrAdminID(id uuid.UUID) Policy {
	return Policy{kind: KindOwnerOrAdmin, owner: id}
}

// Kind returns the variant tag.
func (p Policy) Kind() Kind { return p.kind }

// Owner returns the expected identity of an OwnerOrAdmin policy.
func (p Policy) Owner() (uuid.UUID, bool) {
	return p.owner, p.kind == KindOwnerOrAdmin
}

func (p Policy) String() string {
	if p.kind == KindOwnerOrAdmin {
		return p.kind.String() + "(" + p.owner.String() + ")"
	}
	return p.kind.String()
}

// Allows reports whether the policy admits p.
func (p Policy) Allows(pr Principal) bool {
	switch p.kind {
	case KindAdminOnly:
		return pr.Role.IsBypass()
	case KindAnyUser:
		return pr.Role == role.User || pr.Role.IsBypass()
	case KindAnyPrincipal:
		return true
	case KindOwnerOrAdmin:
		return pr.ID == p.owner || pr.Role.IsBypass()
	default:
		return false
	}
}
