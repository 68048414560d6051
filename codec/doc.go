// Package codec converts session claims to and from the opaque blob persisted
// by the session store.
//
// # Formats
//
// Four encodings are provided: JSON (the default), a compact versioned binary
// layout, deterministic CBOR, and MessagePack with sorted map keys. Every codec
// produces byte-identical output for equal inputs, so blobs can be compared and
// hashed.
//
// # Architecture boundaries
//
// This package only knows about map[string]string. It does NOT interpret claim
// names, evaluate roles, or talk to storage.
//
// # What this package must NOT do
//
//   - Import session, authz, or goSession (no upward imports).
//   - Silently repair malformed input. Decode either returns the exact state or
//     an error wrapping [ErrDeserialize].
package codec
