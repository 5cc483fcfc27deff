package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rickgao/eod-movers/internal/config"
	"github.com/rickgao/eod-movers/internal/database"
	"github.com/rickgao/eod-movers/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/loader.yaml", "path to config file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [-config path] up|status|down")
	}
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	if err := run(*configPath, cmd, logger); err != nil {
		logger.Error("migration failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(configPath, cmd string, logger *slog.Logger) error {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Driver == config.DriverSQLite {
		// SQLite creates its schema on open.
		db, err := store.OpenSQLite(cfg.Database.SQLitePath, 0, logger)
		if err != nil {
			return err
		}
		logger.Info("sqlite schema ready", "path", cfg.Database.SQLitePath)
		return db.Close()
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	switch cmd {
	case "up":
		return database.Migrate(ctx, pool, logger)
	case "status":
		return database.MigrationStatus(ctx, pool)
	case "down":
		return database.Rollback(ctx, pool)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
