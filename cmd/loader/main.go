package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/eod-movers/internal/api"
	"github.com/rickgao/eod-movers/internal/config"
	"github.com/rickgao/eod-movers/internal/database"
	"github.com/rickgao/eod-movers/internal/fetcher"
	"github.com/rickgao/eod-movers/internal/model"
	"github.com/rickgao/eod-movers/internal/movers"
	"github.com/rickgao/eod-movers/internal/notify"
	"github.com/rickgao/eod-movers/internal/pipeline"
	"github.com/rickgao/eod-movers/internal/scheduler"
	"github.com/rickgao/eod-movers/internal/store"
	"github.com/rickgao/eod-movers/internal/tickers"
	"github.com/rickgao/eod-movers/internal/version"
)

// seedChunk is the number of tickers written per transaction when seeding.
const seedChunk = 50

type options struct {
	configPath  string
	date        string
	mode        string
	symbols     string
	seedTickers bool
	schedule    bool
	debug       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "configs/loader.yaml", "path to config file")
	flag.StringVar(&opts.date, "date", "", "target date YYYY-MM-DD (default: last trading day)")
	flag.StringVar(&opts.mode, "mode", "", "override loader mode: batch or single")
	flag.StringVar(&opts.symbols, "tickers", "", "comma-separated symbols to load instead of the configured universe")
	flag.BoolVar(&opts.seedTickers, "seed-tickers", false, "upsert the CSV universe into the tickers table and exit")
	flag.BoolVar(&opts.schedule, "schedule", false, "run on the configured cron schedule instead of once")
	flag.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flag.Parse()

	// Set up structured logging
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("loader failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	logger.Info("starting loader",
		"version", version.Version,
		"commit", version.Commit,
		"config", opts.configPath,
	)

	cfg, err := config.LoadAndValidate(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.mode != "" {
		cfg.Loader.Mode = opts.mode
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid -mode: %w", err)
		}
	}

	var target time.Time
	if opts.date != "" {
		if target, err = model.ParseDay(opts.date); err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
	}

	logger.Info("configuration loaded",
		"provider", cfg.API.Provider,
		"driver", cfg.Database.Driver,
		"mode", cfg.Loader.Mode,
		"threshold", cfg.Movers.Threshold,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	st, err := database.OpenStore(ctx, cfg.Database, cfg.Loader.UpsertChunk, true, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if opts.seedTickers {
		return seed(ctx, st, cfg.Loader.TickersCSV, logger)
	}

	f := fetcher.New(newSource(cfg, logger), fetcher.Config{
		BatchSize:    cfg.Loader.BatchSize,
		MaxRetries:   cfg.API.MaxRetries,
		RetryBackoff: cfg.API.RetryBackoff,
	}, logger)

	det := movers.NewDetector(st, movers.Config{
		Threshold:         cfg.Movers.Threshold,
		DailyLookbackDays: cfg.Movers.DailyLookbackDays,
		WeeklyWindowDays:  cfg.Movers.WeeklyWindowDays,
	}, logger)

	var pipeOpts []pipeline.Option
	if cfg.Redis.Enabled() {
		rdb, err := notify.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		pub := notify.NewPublisher(rdb, cfg.Redis.Channel, logger)
		defer pub.Close()
		pipeOpts = append(pipeOpts, pipeline.WithPublisher(pub))
		logger.Info("publishing movers", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	p := pipeline.New(universe(cfg, opts.symbols, st, logger), f, st, det, pipeline.Config{
		Mode:         cfg.Loader.Mode,
		BatchSize:    cfg.Loader.BatchSize,
		RequestDelay: cfg.Loader.RequestDelay,
		PauseEvery:   cfg.Loader.PauseEvery,
		Pause:        cfg.Loader.Pause,
	}, logger, pipeOpts...)

	runOnce := func(ctx context.Context) error {
		day := target
		if day.IsZero() {
			day = f.LastTradingDay(ctx, cfg.Loader.Benchmark, time.Now())
		}
		_, err := p.Run(ctx, day)
		return err
	}

	if opts.schedule {
		if cfg.Schedule.Cron == "" {
			return errors.New("-schedule requires schedule.cron in config")
		}
		s, err := scheduler.New(cfg.Schedule.Cron, cfg.Schedule.Timezone, runOnce, logger)
		if err != nil {
			return err
		}
		return s.Run(ctx)
	}

	return runOnce(ctx)
}

// newSource builds the configured market data backend.
func newSource(cfg *config.Config, logger *slog.Logger) fetcher.Source {
	if cfg.API.Provider == config.ProviderAlpaca {
		client := fetcher.NewAlpacaClient(cfg.API.APIKey, cfg.API.APISecret, cfg.API.BaseURL)
		return fetcher.NewAlpaca(client, cfg.API.Feed)
	}

	// FetchOne retries in single mode; the HTTP client must not retry too.
	retries := cfg.API.MaxRetries
	if cfg.Loader.Mode == config.ModeSingle {
		retries = 0
	}
	client := api.NewClient(
		cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(retries, cfg.API.RetryBackoff),
		api.WithUserAgent(version.UserAgent()),
	)
	y := fetcher.NewYahoo(client, cfg.API.Concurrency, logger)
	if cfg.Loader.Mode == config.ModeSingle {
		y.WithQuotes(client)
	}
	return y
}

// universe selects the ticker source: -tickers, the tickers table or the CSV.
func universe(cfg *config.Config, symbols string, st store.Store, logger *slog.Logger) tickers.Source {
	if symbols != "" {
		return tickers.FromSymbols(strings.Split(symbols, ",")...)
	}
	if cfg.Loader.TickerSource == config.SourceDB {
		return tickers.NewDB(st, cfg.Loader.PageSize, logger)
	}
	return tickers.NewCSV(cfg.Loader.TickersCSV)
}

// seed upserts the CSV universe into the tickers table.
func seed(ctx context.Context, st store.Store, path string, logger *slog.Logger) error {
	ts, err := tickers.NewCSV(path).Load(ctx)
	if err != nil {
		return err
	}

	total := 0
	for start := 0; start < len(ts); start += seedChunk {
		end := min(start+seedChunk, len(ts))
		n, err := st.UpsertTickers(ctx, ts[start:end])
		total += n
		if err != nil {
			return fmt.Errorf("seed tickers %d-%d: %w", start, end, err)
		}
		logger.Info("seeded tickers", "inserted", total, "total", len(ts))
	}
	return nil
}
