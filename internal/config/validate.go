package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	switch c.API.Provider {
	case ProviderYahoo:
	case ProviderAlpaca:
		if c.API.APIKey == "" {
			return errors.New("api.api_key is required for provider alpaca")
		}
		if c.API.APISecret == "" {
			return errors.New("api.api_secret is required for provider alpaca")
		}
	default:
		return fmt.Errorf("api.provider must be %q or %q, got %q", ProviderYahoo, ProviderAlpaca, c.API.Provider)
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.API.Concurrency < 1 {
		return errors.New("api.concurrency must be >= 1")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if err := c.Loader.validate(); err != nil {
		return err
	}

	if c.Movers.Threshold <= 0 {
		return fmt.Errorf("movers.threshold must be > 0, got %v", c.Movers.Threshold)
	}
	if c.Movers.DailyLookbackDays < 1 {
		return errors.New("movers.daily_lookback_days must be >= 1")
	}
	if c.Movers.WeeklyWindowDays < 5 {
		return errors.New("movers.weekly_window_days must be >= 5")
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron is invalid: %w", err)
		}
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule.timezone is invalid: %w", err)
		}
	}

	return nil
}

func (l *LoaderConfig) validate() error {
	if l.Mode != ModeBatch && l.Mode != ModeSingle {
		return fmt.Errorf("loader.mode must be %q or %q, got %q", ModeBatch, ModeSingle, l.Mode)
	}
	switch l.TickerSource {
	case SourceCSV:
		if l.TickersCSV == "" {
			return errors.New("loader.tickers_csv is required for ticker_source csv")
		}
	case SourceDB:
		if l.PageSize < 1 {
			return errors.New("loader.page_size must be >= 1")
		}
	default:
		return fmt.Errorf("loader.ticker_source must be %q or %q, got %q", SourceCSV, SourceDB, l.TickerSource)
	}
	if l.BatchSize < 1 {
		return errors.New("loader.batch_size must be >= 1")
	}
	if l.UpsertChunk < 1 {
		return errors.New("loader.upsert_chunk must be >= 1")
	}
	if l.RequestDelay < 0 || l.Pause < 0 {
		return errors.New("loader delays must be >= 0")
	}
	if l.PauseEvery < 1 {
		return errors.New("loader.pause_every must be >= 1")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	switch db.Driver {
	case DriverSQLite:
		if db.SQLitePath == "" {
			return fmt.Errorf("%s.sqlite_path is required for driver sqlite", prefix)
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("%s.driver must be %q or %q, got %q", prefix, DriverPostgres, DriverSQLite, db.Driver)
	}

	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
