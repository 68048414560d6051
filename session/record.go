package session

import (
	"time"

	"github.com/uptrace/bun"
)

// Record is the persisted form of a session. It doubles as the bun model for
// the reference "sessions" table.
type Record struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	Key       string    `bun:"id,pk,type:varchar(4096)"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	Data      []byte    `bun:"data,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// Live reports whether the record has not expired at now.
func (r *Record) Live(now time.Time) bool {
	return r != nil && r.ExpiresAt.After(now)
}
