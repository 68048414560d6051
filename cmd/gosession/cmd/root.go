package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/config"
	"github.com/MrEthical07/goSession/internal/db"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gosession",
	Short: "Session store and authorization tooling",
	Long: `gosession manages server-side sessions backed by Redis or SQL.
Settings come from a YAML file (--config) and GOSESSION_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openEngine builds an engine over the configured store. The returned
// cleanup closes the engine and its connections.
func openEngine(ctx context.Context) (*goSession.Engine, func(), error) {
	b := goSession.New().
		WithConfig(cfg.Engine(logger)).
		WithLogger(logger)

	var closeStore func()
	switch cfg.Store {
	case "sql":
		bdb, err := openDB(ctx)
		if err != nil {
			return nil, nil, err
		}
		b = b.WithDB(bdb)
		closeStore = func() { _ = db.Close(bdb) }
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b = b.WithRedis(rdb)
		closeStore = func() { _ = rdb.Close() }
	}

	engine, err := b.Build()
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to build engine: %w", err)
	}
	return engine, func() {
		engine.Close()
		closeStore()
	}, nil
}

func openDB(ctx context.Context) (*bun.DB, error) {
	bdb, err := db.Open(ctx, cfg.Database.URL, db.Options{MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return bdb, nil
}
