// Package goSession provides server-side sessions bound to a user identity
// and role, plus role-based authorization policies evaluated against them.
//
// An [Engine] is assembled with [New] and [Builder.Build] over exactly one
// session backend (Redis, a bun SQL database, or a custom
// [session.Backend]). Engine methods are safe to call from multiple
// goroutines after Build.
//
// # Architecture boundaries
//
// goSession is the facade. Storage lives in session, encoding in codec,
// roles in role, principals and policies in authz, and signed client tokens
// in seal. Each of those packages is usable on its own; the facade adds
// token handling, metrics and audit events.
//
// # What this package must NOT do
//
//   - Cache principals. Every Resolve and Authorize reads the store.
//   - Log or audit full session keys. Only fingerprints leave the store.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
