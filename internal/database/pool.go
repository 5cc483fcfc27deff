package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/eod-movers/internal/config"
	"github.com/rickgao/eod-movers/internal/store"
)

// Connect creates a single connection pool.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// OpenStore opens the store selected by cfg.Driver. Postgres schemas are
// migrated first when migrate is true.
func OpenStore(ctx context.Context, cfg config.DBConfig, chunkSize int, migrate bool, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		return store.OpenSQLite(cfg.SQLitePath, chunkSize, logger)

	case config.DriverPostgres, "":
		pool, err := Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if migrate {
			if err := Migrate(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		logger.Info("connected to postgres",
			"host", cfg.Host,
			"name", cfg.Name,
			"max_conns", cfg.MaxConns,
		)
		return store.NewPostgres(pool, chunkSize, logger), nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
