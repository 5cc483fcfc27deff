package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  provider: alpaca
  api_key: key-id
  api_secret: secret
  feed: iex
database:
  driver: postgres
  host: localhost
  port: 5432
  name: eod
  user: loader
  password: testpass
loader:
  mode: single
  tickers_csv: data/tickers.csv
  request_delay: 2s
movers:
  threshold: 10
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Provider != ProviderAlpaca {
		t.Errorf("API.Provider = %q, want %q", cfg.API.Provider, ProviderAlpaca)
	}
	if cfg.API.Feed != "iex" {
		t.Errorf("API.Feed = %q, want %q", cfg.API.Feed, "iex")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Loader.Mode != ModeSingle {
		t.Errorf("Loader.Mode = %q, want %q", cfg.Loader.Mode, ModeSingle)
	}
	if cfg.Loader.RequestDelay != 2*time.Second {
		t.Errorf("Loader.RequestDelay = %v, want 2s", cfg.Loader.RequestDelay)
	}
	if cfg.Movers.Threshold != 10 {
		t.Errorf("Movers.Threshold = %v, want 10", cfg.Movers.Threshold)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
database:
  host: localhost
  name: eod
  user: loader
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
database:
  host: localhost
  name: eod
  user: loader
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.API.Provider != DefaultProvider {
		t.Errorf("API.Provider = %q, want default %q", cfg.API.Provider, DefaultProvider)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Database.Driver = %q, want default %q", cfg.Database.Driver, DriverPostgres)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Loader.BatchSize != 150 {
		t.Errorf("Loader.BatchSize = %d, want default 150", cfg.Loader.BatchSize)
	}
	if cfg.Loader.UpsertChunk != 800 {
		t.Errorf("Loader.UpsertChunk = %d, want default 800", cfg.Loader.UpsertChunk)
	}
	if cfg.Loader.RequestDelay != 1500*time.Millisecond {
		t.Errorf("Loader.RequestDelay = %v, want default 1.5s", cfg.Loader.RequestDelay)
	}
	if cfg.Loader.TickersCSV != DefaultTickersCSV {
		t.Errorf("Loader.TickersCSV = %q, want default %q", cfg.Loader.TickersCSV, DefaultTickersCSV)
	}
	if cfg.Movers.Threshold != 15.0 {
		t.Errorf("Movers.Threshold = %v, want default 15", cfg.Movers.Threshold)
	}
	if cfg.Movers.DailyLookbackDays != 4 || cfg.Movers.WeeklyWindowDays != 10 {
		t.Errorf("Movers windows = %d/%d, want 4/10", cfg.Movers.DailyLookbackDays, cfg.Movers.WeeklyWindowDays)
	}
	if cfg.Redis.Enabled() {
		t.Error("Redis should be disabled without addr")
	}
	if cfg.Schedule.Timezone != "" {
		t.Errorf("Schedule.Timezone = %q, want empty without cron", cfg.Schedule.Timezone)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("EOD_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("EOD_TEST_DOTENV", "")
	os.Unsetenv("EOD_TEST_DOTENV")

	if err := LoadDotEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("EOD_TEST_DOTENV"); got != "from-file" {
		t.Errorf("EOD_TEST_DOTENV = %q, want %q", got, "from-file")
	}
}

func validConfig() Config {
	cfg := Config{
		Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass"},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.API.Provider = "iex" },
			wantErr: `api.provider must be "yahoo" or "alpaca", got "iex"`,
		},
		{
			name:    "alpaca without key",
			mutate:  func(c *Config) { c.API.Provider = ProviderAlpaca },
			wantErr: "api.api_key is required for provider alpaca",
		},
		{
			name: "alpaca without secret",
			mutate: func(c *Config) {
				c.API.Provider = ProviderAlpaca
				c.API.APIKey = "k"
			},
			wantErr: "api.api_secret is required for provider alpaca",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database.host is required",
		},
		{
			name:    "missing database password",
			mutate:  func(c *Config) { c.Database.Password = "" },
			wantErr: "database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database.MaxConns = 5
				c.Database.MinConns = 10
			},
			wantErr: "database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database = DBConfig{Driver: DriverSQLite} },
			wantErr: "database.sqlite_path is required for driver sqlite",
		},
		{
			name:    "sqlite with path",
			mutate:  func(c *Config) { c.Database = DBConfig{Driver: DriverSQLite, SQLitePath: "eod.db"} },
			wantErr: "",
		},
		{
			name:    "bad mode",
			mutate:  func(c *Config) { c.Loader.Mode = "fast" },
			wantErr: `loader.mode must be "batch" or "single", got "fast"`,
		},
		{
			name:    "csv source without file",
			mutate:  func(c *Config) { c.Loader.TickersCSV = "" },
			wantErr: "loader.tickers_csv is required for ticker_source csv",
		},
		{
			name:    "db ticker source",
			mutate:  func(c *Config) { c.Loader.TickerSource = SourceDB },
			wantErr: "",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.Movers.Threshold = -1 },
			wantErr: "movers.threshold must be > 0, got -1",
		},
		{
			name:    "short weekly window",
			mutate:  func(c *Config) { c.Movers.WeeklyWindowDays = 4 },
			wantErr: "movers.weekly_window_days must be >= 5",
		},
		{
			name: "valid schedule",
			mutate: func(c *Config) {
				c.Schedule = ScheduleConfig{Cron: "30 18 * * 1-5", Timezone: "UTC"}
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestValidate_BadCron(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule = ScheduleConfig{Cron: "not a cron", Timezone: "UTC"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for invalid cron")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
