package migrations

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/session"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20261019000001, down_20261019000001)
}

// up_20261019000001 creates the sessions table and its expiry index.
func up_20261019000001(ctx context.Context, db *bun.DB) error {
	if err := session.CreateTable(ctx, db); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func down_20261019000001(ctx context.Context, db *bun.DB) error {
	if err := session.DropTable(ctx, db); err != nil {
		return fmt.Errorf("drop sessions table: %w", err)
	}
	return nil
}
