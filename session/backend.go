package session

import (
	"context"
	"time"
)

// Backend persists [Record] values. Every method is a single atomic read or
// write; implementations must be safe for concurrent use.
//
// Liveness checks use the now argument supplied by the [Store] so that all
// expiry arithmetic shares one clock.
type Backend interface {
	// Insert stores rec if no record exists under rec.Key. It returns
	// ErrKeyExists otherwise, whether or not the existing record is live.
	Insert(ctx context.Context, rec *Record) error

	// Get returns the stored record, live or not, or ErrNotFound.
	Get(ctx context.Context, key string) (*Record, error)

	// Replace sets data and expiresAt on a record that is live at now.
	// It returns ErrNotFound if there is no such record.
	Replace(ctx context.Context, key string, data []byte, expiresAt, now time.Time) error

	// Touch sets expiresAt on a record that is live at now. It returns
	// ErrNotFound if there is no such record.
	Touch(ctx context.Context, key string, expiresAt, now time.Time) error

	// Remove deletes any record under key and reports whether it was live
	// at now. A missing record is not an error.
	Remove(ctx context.Context, key string, now time.Time) (bool, error)
}
