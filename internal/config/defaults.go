package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultProvider          = ProviderYahoo
	DefaultAPITimeout        = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryBackoff      = 1 * time.Second
	DefaultConcurrency       = 20
	DefaultDriver            = DriverPostgres
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultMode              = ModeBatch
	DefaultTickerSource      = SourceCSV
	DefaultTickersCSV        = "tickers.csv"
	DefaultPageSize          = 1000
	DefaultBatchSize         = 150
	DefaultUpsertChunk       = 800
	DefaultRequestDelay      = 1500 * time.Millisecond
	DefaultPauseEvery        = 100
	DefaultPause             = 5 * time.Second
	DefaultBenchmark         = "SPY"
	DefaultThreshold         = 15.0
	DefaultDailyLookbackDays = 4
	DefaultWeeklyWindowDays  = 10
	DefaultRedisChannel      = "eod:movers"
	DefaultTimezone          = "America/New_York"
)

// Enumerated option values.
const (
	ProviderYahoo  = "yahoo"
	ProviderAlpaca = "alpaca"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	ModeBatch      = "batch"
	ModeSingle     = "single"
	SourceCSV      = "csv"
	SourceDB       = "db"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.Provider == "" {
		c.API.Provider = DefaultProvider
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.Concurrency == 0 {
		c.API.Concurrency = DefaultConcurrency
	}

	// Database defaults
	applyDBDefaults(&c.Database)

	// Loader defaults
	if c.Loader.Mode == "" {
		c.Loader.Mode = DefaultMode
	}
	if c.Loader.TickerSource == "" {
		c.Loader.TickerSource = DefaultTickerSource
	}
	if c.Loader.TickerSource == SourceCSV && c.Loader.TickersCSV == "" {
		c.Loader.TickersCSV = DefaultTickersCSV
	}
	if c.Loader.PageSize == 0 {
		c.Loader.PageSize = DefaultPageSize
	}
	if c.Loader.BatchSize == 0 {
		c.Loader.BatchSize = DefaultBatchSize
	}
	if c.Loader.UpsertChunk == 0 {
		c.Loader.UpsertChunk = DefaultUpsertChunk
	}
	if c.Loader.RequestDelay == 0 {
		c.Loader.RequestDelay = DefaultRequestDelay
	}
	if c.Loader.PauseEvery == 0 {
		c.Loader.PauseEvery = DefaultPauseEvery
	}
	if c.Loader.Pause == 0 {
		c.Loader.Pause = DefaultPause
	}
	if c.Loader.Benchmark == "" {
		c.Loader.Benchmark = DefaultBenchmark
	}

	// Movers defaults
	if c.Movers.Threshold == 0 {
		c.Movers.Threshold = DefaultThreshold
	}
	if c.Movers.DailyLookbackDays == 0 {
		c.Movers.DailyLookbackDays = DefaultDailyLookbackDays
	}
	if c.Movers.WeeklyWindowDays == 0 {
		c.Movers.WeeklyWindowDays = DefaultWeeklyWindowDays
	}

	// Redis defaults
	if c.Redis.Enabled() && c.Redis.Channel == "" {
		c.Redis.Channel = DefaultRedisChannel
	}

	// Schedule defaults
	if c.Schedule.Cron != "" && c.Schedule.Timezone == "" {
		c.Schedule.Timezone = DefaultTimezone
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Driver == "" {
		db.Driver = DefaultDriver
	}
	if db.Driver != DriverPostgres {
		return
	}
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
