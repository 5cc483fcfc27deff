package config

import "time"

// Config is the root configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Database DBConfig       `yaml:"database"`
	Loader   LoaderConfig   `yaml:"loader"`
	Movers   MoversConfig   `yaml:"movers"`
	Redis    RedisConfig    `yaml:"redis"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// APIConfig holds market data source settings.
type APIConfig struct {
	Provider     string        `yaml:"provider"`   // "yahoo" or "alpaca"
	BaseURL      string        `yaml:"base_url"`   // Empty uses the provider default
	APIKey       string        `yaml:"api_key"`    // Alpaca key ID
	APISecret    string        `yaml:"api_secret"` // Alpaca secret key
	Feed         string        `yaml:"feed"`       // Alpaca feed ("iex", "sip")
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	Concurrency  int           `yaml:"concurrency"` // In-flight requests per batch (yahoo)
}

// DBConfig holds the store connection.
type DBConfig struct {
	Driver     string `yaml:"driver"` // "postgres" or "sqlite"
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Name       string `yaml:"name"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	SSLMode    string `yaml:"ssl_mode"`
	MaxConns   int    `yaml:"max_conns"`
	MinConns   int    `yaml:"min_conns"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LoaderConfig holds pipeline settings.
type LoaderConfig struct {
	Mode         string        `yaml:"mode"`          // "batch" or "single"
	TickerSource string        `yaml:"ticker_source"` // "csv" or "db"
	TickersCSV   string        `yaml:"tickers_csv"`
	PageSize     int           `yaml:"page_size"`     // DB ticker source page
	BatchSize    int           `yaml:"batch_size"`    // Tickers per fetch batch
	UpsertChunk  int           `yaml:"upsert_chunk"`  // Records per upsert transaction
	RequestDelay time.Duration `yaml:"request_delay"` // Single mode, between tickers
	PauseEvery   int           `yaml:"pause_every"`   // Single mode, extra pause cadence
	Pause        time.Duration `yaml:"pause"`
	Benchmark    string        `yaml:"benchmark"` // Probed for the last trading day
}

// MoversConfig holds mover detection settings.
type MoversConfig struct {
	Threshold         float64 `yaml:"threshold"` // Minimum absolute percent change
	DailyLookbackDays int     `yaml:"daily_lookback_days"`
	WeeklyWindowDays  int     `yaml:"weekly_window_days"`
}

// RedisConfig enables mover publishing when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// ScheduleConfig enables recurring runs when Cron is set.
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// Enabled reports whether mover publishing is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}
