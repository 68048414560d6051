package cmd

import (
	"fmt"

	"github.com/MrEthical07/goSession/internal/db"
	"github.com/MrEthical07/goSession/internal/migrations"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQL session schema",
}

var migrateInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the migration tracking tables",
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		if err := m.Init(cmd.Context()); err != nil {
			return fmt.Errorf("failed to initialize migrator: %w", err)
		}
		logger.Info("migration tables initialized")
		return nil
	}),
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		ctx := cmd.Context()
		if err := m.Lock(ctx); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		defer func() {
			if err := m.Unlock(ctx); err != nil {
				logger.Warn("failed to release migration lock", "error", err)
			}
		}()

		group, err := m.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if group.ID == 0 {
			logger.Info("no new migrations to apply")
		} else {
			logger.Info("applied migrations", "group", group.ID)
		}
		return nil
	}),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		ms, err := m.MigrationsWithStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, mig := range ms {
			status := "pending"
			if mig.GroupID > 0 {
				status = fmt.Sprintf("applied (group %d)", mig.GroupID)
			}
			fmt.Fprintf(out, "%s: %s\n", mig.Name, status)
		}
		return nil
	}),
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the last migration group",
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		ctx := cmd.Context()
		if err := m.Lock(ctx); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		defer func() {
			if err := m.Unlock(ctx); err != nil {
				logger.Warn("failed to release migration lock", "error", err)
			}
		}()

		group, err := m.Rollback(ctx)
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		if group.ID == 0 {
			logger.Info("no migrations to roll back")
		} else {
			logger.Info("rolled back migrations", "group", group.ID)
		}
		return nil
	}),
}

func init() {
	migrateCmd.AddCommand(migrateInitCmd, migrateUpCmd, migrateStatusCmd, migrateRollbackCmd)
}

func withMigrator(fn func(*cobra.Command, *migrate.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is required for migrations")
		}
		bdb, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close(bdb)
		return fn(cmd, migrate.NewMigrator(bdb, migrations.Migrations))
	}
}
