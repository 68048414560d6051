// Package migrations holds the bun migrations for the SQL session store.
package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the ordered set registered by the files in this package.
var Migrations = migrate.NewMigrations()
