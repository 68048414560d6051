// Package middleware adapts goSession authorization to net/http.
//
// # Guards
//
//   - [Require] admits requests whose session satisfies an authz.Policy.
//   - [RequireOwnerOrAdmin] reads the owner id from a chi URL parameter.
//
// Tokens are read through a [TokenSource] ([FromCookie], [FromBearer],
// [FirstOf]). A granted request carries its authz.Authorized value, see
// [AuthorizedFromContext].
//
// Errors map to statuses via [StatusFor]: 401 unauthenticated, 403 denied,
// 400 malformed owner id, 500 otherwise.
//
// # What this package must NOT do
//
//   - Decide policy. Every decision comes from the Authorizer.
//   - Open or verify sealed tokens itself.
//   - Touch the session store.
package middleware
