package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// SQLBackend stores sessions in the "sessions" table through bun. It works
// with the PostgreSQL and SQLite dialects.
type SQLBackend struct {
	db *bun.DB
}

// NewSQLBackend creates a [SQLBackend]. The table must already exist; see
// [CreateTable] or the bundled migrations.
func NewSQLBackend(db *bun.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// CreateTable creates the sessions table and its expiry index if missing.
func CreateTable(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	if _, err := db.NewCreateIndex().
		Model((*Record)(nil)).
		Index("idx_sessions_expires_at").
		Column("expires_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create sessions expiry index: %w", err)
	}
	return nil
}

// DropTable drops the sessions table.
func DropTable(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewDropTable().Model((*Record)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("drop sessions table: %w", err)
	}
	return nil
}

// Insert implements [Backend].
func (b *SQLBackend) Insert(ctx context.Context, rec *Record) error {
	res, err := b.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if n == 0 {
		return ErrKeyExists
	}
	return nil
}

// Get implements [Backend].
func (b *SQLBackend) Get(ctx context.Context, key string) (*Record, error) {
	rec := &Record{Key: key}
	err := b.db.NewSelect().Model(rec).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rec, nil
}

// Replace implements [Backend].
func (b *SQLBackend) Replace(ctx context.Context, key string, data []byte, expiresAt, now time.Time) error {
	return b.mutateLive(ctx, key, now, func(tx bun.Tx, rec *Record) error {
		rec.Data = data
		rec.ExpiresAt = expiresAt
		return b.updateColumns(ctx, tx, rec, "data", "expires_at")
	})
}

// Touch implements [Backend].
func (b *SQLBackend) Touch(ctx context.Context, key string, expiresAt, now time.Time) error {
	return b.mutateLive(ctx, key, now, func(tx bun.Tx, rec *Record) error {
		rec.ExpiresAt = expiresAt
		return b.updateColumns(ctx, tx, rec, "expires_at")
	})
}

// Remove implements [Backend].
func (b *SQLBackend) Remove(ctx context.Context, key string, now time.Time) (bool, error) {
	var live bool
	err := b.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		rec, err := b.selectForUpdate(ctx, tx, key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		res, err := tx.NewDelete().Model(rec).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			live = rec.Live(now)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return live, nil
}

var errNotLive = errors.New("session not live")

// mutateLive runs fn in a transaction on the record under key if it is live
// at now.
func (b *SQLBackend) mutateLive(ctx context.Context, key string, now time.Time, fn func(bun.Tx, *Record) error) error {
	err := b.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		rec, err := b.selectForUpdate(ctx, tx, key)
		if errors.Is(err, sql.ErrNoRows) {
			return errNotLive
		}
		if err != nil {
			return err
		}
		if !rec.Live(now) {
			return errNotLive
		}
		return fn(tx, rec)
	})
	if errors.Is(err, errNotLive) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

func (b *SQLBackend) selectForUpdate(ctx context.Context, tx bun.Tx, key string) (*Record, error) {
	rec := &Record{Key: key}
	q := tx.NewSelect().Model(rec).WherePK()
	if b.db.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (b *SQLBackend) updateColumns(ctx context.Context, tx bun.Tx, rec *Record, columns ...string) error {
	res, err := tx.NewUpdate().Model(rec).Column(columns...).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotLive
	}
	return nil
}
