// Package role defines the closed set of identity roles a session principal
// can hold and the integer codes they are stored under.
//
// # Codes
//
// Roles travel inside session claims as decimal codes: Guest=1, User=2,
// Admin=3. Decoding is total; a code this version does not know decodes to
// [Guest], the least-privileged role, so a stale or tampered code can never
// grant access.
//
// # Bypass
//
// [Admin] is the only bypass role. Policies grant it access unconditionally.
// Roles are not ordered: there is no "at least User" comparison.
//
// # What this package must NOT do
//
//   - Perform I/O or import session, authz, or goSession.
//   - Fail when decoding an unknown code.
package role
