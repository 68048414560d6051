// Package session provides durable, TTL-bound session persistence keyed by
// high-entropy opaque keys.
//
// # Lifecycle
//
// A record is created with an expiry of now+ttl and is live while its expiry
// is strictly in the future. Expiry is evaluated lazily on access: [Store.Load]
// treats an expired record as absent and deletes it. There is no background
// sweep; a [RedisBackend] may optionally attach a retention TTL so Redis drops
// abandoned records on its own.
//
// # Backends
//
// [Store] owns key generation, claim encoding, and expiry arithmetic. A
// [Backend] only persists [Record] values and applies each write atomically.
// Two backends ship with the package: [RedisBackend] (Lua scripts) and
// [SQLBackend] (bun transactions over PostgreSQL or SQLite).
//
// # Architecture boundaries
//
// This package does NOT interpret claims, resolve principals, or evaluate
// policies. Those responsibilities belong to authz and the Engine.
//
// # What this package must NOT do
//
//   - Import goSession, authz, or role (no upward imports).
//   - Log full session keys.
//   - Reuse a key, even after deletion.
package session
