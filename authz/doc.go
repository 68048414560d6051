// Package authz turns a session key into a typed principal and checks it
// against an access policy.
//
// # Flow
//
//	key -> [Resolver.Resolve] -> [Principal] -> [Authorize] -> [Authorized]
//
// A missing, expired, or claim-less session is [ErrUnauthenticated]. A
// resolved principal that fails its policy is [ErrUnauthorized]. The two are
// never conflated so transports can answer 401 and 403 correctly.
//
// # Policies
//
// [Policy] is a closed tagged variant: AdminOnly, AnyUser, AnyPrincipal, and
// OwnerOrAdmin. The zero Policy denies everything.
//
// # What this package must NOT do
//
//   - Cache principals. Every Resolve reads the session store, so role changes
//     and revocations take effect on the next request.
//   - Parse cookies or write HTTP responses.
//   - Import goSession (no upward imports).
package authz
