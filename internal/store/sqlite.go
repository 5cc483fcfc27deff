package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rickgao/eod-movers/internal/model"
)

// SQLite is a single-file Store. Dates are stored as YYYY-MM-DD text so
// range predicates compare lexically.
type SQLite struct {
	db        *sql.DB
	chunkSize int
	logger    *slog.Logger

	mu sync.Mutex
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and creates the
// schema. Use ":memory:" for a private in-memory database.
func OpenSQLite(path string, chunkSize int, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	s := &SQLite{db: db, chunkSize: chunkSize, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Debug("sqlite store opened", "path", path)
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tickers (
			ticker       TEXT PRIMARY KEY,
			company_name TEXT,
			sector       TEXT,
			active       INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS stocks_daily (
			ticker       TEXT NOT NULL,
			company_name TEXT,
			date         TEXT NOT NULL,
			open_price   REAL,
			high_price   REAL,
			low_price    REAL,
			close_price  REAL NOT NULL,
			volume       INTEGER NOT NULL DEFAULT 0,
			market_cap   REAL,
			created_at   TEXT NOT NULL,
			UNIQUE (ticker, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stocks_daily_date ON stocks_daily(date)`,
		`CREATE TABLE IF NOT EXISTS daily_movers (
			ticker         TEXT NOT NULL,
			date           TEXT NOT NULL,
			previous_close REAL NOT NULL,
			current_close  REAL NOT NULL,
			percent_change REAL NOT NULL,
			volume         INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL,
			UNIQUE (ticker, date)
		)`,
		`CREATE TABLE IF NOT EXISTS weekly_movers (
			ticker           TEXT NOT NULL,
			week_start_date  TEXT NOT NULL,
			week_end_date    TEXT NOT NULL,
			week_start_close REAL NOT NULL,
			week_end_close   REAL NOT NULL,
			percent_change   REAL NOT NULL,
			created_at       TEXT NOT NULL,
			UNIQUE (ticker, week_end_date)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	// Files created before stocks_daily carried company_name.
	return s.ensureColumn("stocks_daily", "company_name", "TEXT")
}

func (s *SQLite) ensureColumn(table, column, typ string) error {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

const sqliteUpsertBar = `
	INSERT INTO stocks_daily (ticker, company_name, date, open_price, high_price, low_price, close_price, volume, market_cap, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (ticker, date) DO UPDATE SET
		company_name = excluded.company_name,
		open_price = excluded.open_price,
		high_price = excluded.high_price,
		low_price = excluded.low_price,
		close_price = excluded.close_price,
		volume = excluded.volume,
		market_cap = excluded.market_cap,
		created_at = excluded.created_at
`

const sqliteUpsertTicker = `
	INSERT INTO tickers (ticker, company_name, sector, active)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (ticker) DO UPDATE SET
		company_name = excluded.company_name,
		sector = excluded.sector,
		active = excluded.active
`

// UpsertBars implements Store.
func (s *SQLite) UpsertBars(ctx context.Context, bars []model.DailyBar) (int, error) {
	written := 0
	for i, chunk := range chunks(bars, s.chunkSize) {
		err := s.inTx(ctx, sqliteUpsertBar, len(chunk), func(stmt *sql.Stmt, j int) error {
			b := chunk[j]
			_, err := stmt.ExecContext(ctx, b.Ticker, nameOrSymbol(b.Name, b.Ticker), dayText(b.Date), nullFloat(b.Open), nullFloat(b.High), nullFloat(b.Low),
				b.Close, b.Volume, nullFloat(b.MarketCap), tsText(b.CreatedAt))
			return err
		})
		if err != nil {
			return written, fmt.Errorf("upsert bars chunk %d: %w", i+1, err)
		}
		written += len(chunk)
	}
	return written, nil
}

// UpsertTickers implements Store.
func (s *SQLite) UpsertTickers(ctx context.Context, tickers []model.Ticker) (int, error) {
	written := 0
	for i, chunk := range chunks(tickers, s.chunkSize) {
		err := s.inTx(ctx, sqliteUpsertTicker, len(chunk), func(stmt *sql.Stmt, j int) error {
			_, err := stmt.ExecContext(ctx, tickerArgs(chunk[j])...)
			return err
		})
		if err != nil {
			return written, fmt.Errorf("upsert tickers chunk %d: %w", i+1, err)
		}
		written += len(chunk)
	}
	return written, nil
}

// inTx prepares query once and executes it n times in one transaction.
func (s *SQLite) inTx(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for j := range n {
		if err := exec(stmt, j); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpsertDailyMover implements Store.
func (s *SQLite) UpsertDailyMover(ctx context.Context, m model.DailyMover) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_movers (ticker, date, previous_close, current_close, percent_change, volume, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker, date) DO UPDATE SET
			previous_close = excluded.previous_close,
			current_close = excluded.current_close,
			percent_change = excluded.percent_change,
			volume = excluded.volume,
			created_at = excluded.created_at`,
		m.Ticker, dayText(m.Date), m.PreviousClose, m.CurrentClose, m.PercentChange, m.Volume, tsText(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert daily mover %s: %w", m.Ticker, err)
	}
	return nil
}

// UpsertWeeklyMover implements Store.
func (s *SQLite) UpsertWeeklyMover(ctx context.Context, m model.WeeklyMover) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_movers (ticker, week_start_date, week_end_date, week_start_close, week_end_close, percent_change, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker, week_end_date) DO UPDATE SET
			week_start_date = excluded.week_start_date,
			week_start_close = excluded.week_start_close,
			week_end_close = excluded.week_end_close,
			percent_change = excluded.percent_change,
			created_at = excluded.created_at`,
		m.Ticker, dayText(m.WeekStartDate), dayText(m.WeekEndDate),
		m.WeekStartClose, m.WeekEndClose, m.PercentChange, tsText(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert weekly mover %s: %w", m.Ticker, err)
	}
	return nil
}

// BarsBetween implements Store.
func (s *SQLite) BarsBetween(ctx context.Context, from, to time.Time, tickers ...string) ([]model.DailyBar, error) {
	query := `
		SELECT d.ticker, COALESCE(NULLIF(d.company_name, d.ticker), t.company_name, d.ticker), d.date, d.open_price, d.high_price, d.low_price,
			d.close_price, d.volume, d.market_cap, d.created_at
		FROM stocks_daily d
		LEFT JOIN tickers t ON t.ticker = d.ticker
		WHERE d.date >= ? AND d.date <= ?`
	args := []any{dayText(from), dayText(to)}
	if syms := upperAll(tickers); len(syms) > 0 {
		query += ` AND d.ticker IN (?` + strings.Repeat(", ?", len(syms)-1) + `)`
		for _, sym := range syms {
			args = append(args, sym)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.DailyBar
	for rows.Next() {
		var (
			b               model.DailyBar
			date, created   string
			open, high, low sql.NullFloat64
			marketCap       sql.NullFloat64
		)
		if err := rows.Scan(&b.Ticker, &b.Name, &date, &open, &high, &low,
			&b.Close, &b.Volume, &marketCap, &created); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		if b.Date, err = model.ParseDay(date); err != nil {
			return nil, fmt.Errorf("parse bar date %q: %w", date, err)
		}
		b.Open, b.High, b.Low = nullable(open), nullable(high), nullable(low)
		b.MarketCap = nullable(marketCap)
		b.CreatedAt = parseTS(created)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ActiveTickers implements Store.
func (s *SQLite) ActiveTickers(ctx context.Context, offset, limit int) ([]model.Ticker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, COALESCE(company_name, ticker), COALESCE(sector, 'Unknown'), active
		FROM tickers
		WHERE active = 1
		ORDER BY ticker
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query active tickers: %w", err)
	}
	defer rows.Close()

	return scanSQLTickers(rows)
}

// SearchTickers implements Store. SQLite LIKE is case-insensitive for ASCII.
func (s *SQLite) SearchTickers(ctx context.Context, symbolLike, nameLike string) ([]model.Ticker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, COALESCE(company_name, ticker), COALESCE(sector, 'Unknown'), active
		FROM tickers
		WHERE ticker LIKE ? AND COALESCE(company_name, '') LIKE ?
		ORDER BY ticker`, likePattern(symbolLike), likePattern(nameLike))
	if err != nil {
		return nil, fmt.Errorf("search tickers: %w", err)
	}
	defer rows.Close()

	return scanSQLTickers(rows)
}

func scanSQLTickers(rows *sql.Rows) ([]model.Ticker, error) {
	var out []model.Ticker
	for rows.Next() {
		var t model.Ticker
		if err := rows.Scan(&t.Symbol, &t.Name, &t.Sector, &t.Active); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DailyMovers implements Store.
func (s *SQLite) DailyMovers(ctx context.Context, f MoverFilter) ([]model.DailyMover, error) {
	where, args := moverWhere("date", f, questionPlaceholder, sqliteDate)
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, date, previous_close, current_close, percent_change, volume, created_at
		FROM daily_movers`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily movers: %w", err)
	}
	defer rows.Close()

	var out []model.DailyMover
	for rows.Next() {
		var (
			m             model.DailyMover
			date, created string
		)
		if err := rows.Scan(&m.Ticker, &date, &m.PreviousClose, &m.CurrentClose,
			&m.PercentChange, &m.Volume, &created); err != nil {
			return nil, fmt.Errorf("scan daily mover: %w", err)
		}
		if m.Date, err = model.ParseDay(date); err != nil {
			return nil, fmt.Errorf("parse mover date %q: %w", date, err)
		}
		m.CreatedAt = parseTS(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// WeeklyMovers implements Store.
func (s *SQLite) WeeklyMovers(ctx context.Context, f MoverFilter) ([]model.WeeklyMover, error) {
	where, args := moverWhere("week_end_date", f, questionPlaceholder, sqliteDate)
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, week_start_date, week_end_date, week_start_close, week_end_close, percent_change, created_at
		FROM weekly_movers`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query weekly movers: %w", err)
	}
	defer rows.Close()

	var out []model.WeeklyMover
	for rows.Next() {
		var (
			m                   model.WeeklyMover
			start, end, created string
		)
		if err := rows.Scan(&m.Ticker, &start, &end, &m.WeekStartClose,
			&m.WeekEndClose, &m.PercentChange, &created); err != nil {
			return nil, fmt.Errorf("scan weekly mover: %w", err)
		}
		if m.WeekStartDate, err = model.ParseDay(start); err != nil {
			return nil, fmt.Errorf("parse week start %q: %w", start, err)
		}
		if m.WeekEndDate, err = model.ParseDay(end); err != nil {
			return nil, fmt.Errorf("parse week end %q: %w", end, err)
		}
		m.CreatedAt = parseTS(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func questionPlaceholder(int) string { return "?" }

func sqliteDate(t time.Time) any { return dayText(t) }

func dayText(t time.Time) string { return model.Day(t).Format(model.DateLayout) }

func tsText(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTS(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return model.Float(v.Float64)
}
