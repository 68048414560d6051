package role

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedCode is returned by [ParseClaim] for text that is not a
	// decimal uint32.
	ErrMalformedCode = errors.New("malformed role code")
	// ErrUnknownRole is returned by [ParseName] for unrecognized names.
	ErrUnknownRole = errors.New("unknown role")
)

// Role is an identity role, stored by its numeric code.
type Role uint32

const (
	// Guest is an anonymous or unprivileged identity.
	Guest Role = 1
	// User is a regular authenticated account.
	User Role = 2
	// Admin bypasses every policy.
	Admin Role = 3
)

var known = []Role{Guest, User, Admin}

// Known returns every defined role in code order.
func Known() []Role {
	out := make([]Role, len(known))
	copy(out, known)
	return out
}

// Decode maps a stored code to a Role. Unknown codes decode to [Guest].
func Decode(code uint32) Role {
	switch r := Role(code); r {
	case Guest, User, Admin:
		return r
	default:
		return Guest
	}
}

// ParseClaim decodes the decimal text form used in session claims. Text that
// is not a uint32 is rejected; a valid but unknown code yields [Guest].
func ParseClaim(s string) (Role, error) {
	code, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return Guest, fmt.Errorf("%w: %q", ErrMalformedCode, s)
	}
	return Decode(uint32(code)), nil
}

// ParseName resolves a role from its name, case-insensitively. Both "admin"
// and "administrator" name [Admin].
func ParseName(name string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "guest":
		return Guest, nil
	case "user":
		return User, nil
	case "admin", "administrator":
		return Admin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
}

// Code returns the stored numeric code.
func (r Role) Code() uint32 {
	return uint32(r)
}

// Claim returns the decimal text form stored in session claims.
func (r Role) Claim() string {
	return strconv.FormatUint(uint64(r), 10)
}

// IsBypass reports whether r passes every policy. Only [Admin] does.
func (r Role) IsBypass() bool {
	return r == Admin
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == Guest || r == User || r == Admin
}

// String returns the short lower-case name.
func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case User:
		return "user"
	case Admin:
		return "admin"
	default:
		return "role(" + strconv.FormatUint(uint64(r), 10) + ")"
	}
}

// DisplayName returns the human-readable name.
func (r Role) DisplayName() string {
	switch r {
	case Guest:
		return "Guest"
	case User:
		return "User"
	case Admin:
		return "Administrator"
	default:
		return "Unknown"
	}
}
