// Package internal holds helpers private to goSession: session key
// generation and key fingerprints for logs and audit events.
//
// # Sub-packages
//
//   - config: viper/validator loading for the gosession binaries
//   - db: bun connection setup for Postgres and SQLite
//   - migrations: bun migrations for the SQL session table
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Log or return raw session keys; callers get fingerprints.
package internal
