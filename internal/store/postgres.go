package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/eod-movers/internal/model"
)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	db        *pgxpool.Pool
	chunkSize int
	logger    *slog.Logger
}

var (
	_ Store           = (*Postgres)(nil)
	_ MovementQuerier = (*Postgres)(nil)
)

// NewPostgres wraps an open pool. chunkSize <= 0 uses DefaultChunkSize.
func NewPostgres(db *pgxpool.Pool, chunkSize int, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Postgres{db: db, chunkSize: chunkSize, logger: logger}
}

const upsertBarSQL = `
	INSERT INTO stocks_daily (ticker, company_name, date, open_price, high_price, low_price, close_price, volume, market_cap, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (ticker, date) DO UPDATE SET
		company_name = EXCLUDED.company_name,
		open_price = EXCLUDED.open_price,
		high_price = EXCLUDED.high_price,
		low_price = EXCLUDED.low_price,
		close_price = EXCLUDED.close_price,
		volume = EXCLUDED.volume,
		market_cap = EXCLUDED.market_cap,
		created_at = EXCLUDED.created_at
`

const upsertDailyMoverSQL = `
	INSERT INTO daily_movers (ticker, date, previous_close, current_close, percent_change, volume, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (ticker, date) DO UPDATE SET
		previous_close = EXCLUDED.previous_close,
		current_close = EXCLUDED.current_close,
		percent_change = EXCLUDED.percent_change,
		volume = EXCLUDED.volume,
		created_at = EXCLUDED.created_at
`

const upsertWeeklyMoverSQL = `
	INSERT INTO weekly_movers (ticker, week_start_date, week_end_date, week_start_close, week_end_close, percent_change, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (ticker, week_end_date) DO UPDATE SET
		week_start_date = EXCLUDED.week_start_date,
		week_start_close = EXCLUDED.week_start_close,
		week_end_close = EXCLUDED.week_end_close,
		percent_change = EXCLUDED.percent_change,
		created_at = EXCLUDED.created_at
`

const upsertTickerSQL = `
	INSERT INTO tickers (ticker, company_name, sector, active)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (ticker) DO UPDATE SET
		company_name = EXCLUDED.company_name,
		sector = EXCLUDED.sector,
		active = EXCLUDED.active
`

// barArgs returns the positional arguments of upsertBarSQL.
func barArgs(b model.DailyBar) []any {
	return []any{
		b.Ticker, nameOrSymbol(b.Name, b.Ticker), model.Day(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume, b.MarketCap, b.CreatedAt,
	}
}

func tickerArgs(t model.Ticker) []any {
	sym := model.NormalizeSymbol(t.Symbol)
	return []any{sym, nameOrSymbol(t.Name, sym), sectorOrUnknown(t.Sector), t.Active}
}

// UpsertBars implements Store.
func (s *Postgres) UpsertBars(ctx context.Context, bars []model.DailyBar) (int, error) {
	written := 0
	for i, chunk := range chunks(bars, s.chunkSize) {
		start := time.Now()
		err := s.sendChunk(ctx, len(chunk), func(b *pgx.Batch) {
			for _, bar := range chunk {
				b.Queue(upsertBarSQL, barArgs(bar)...)
			}
		})
		if err != nil {
			return written, fmt.Errorf("upsert bars chunk %d: %w", i+1, err)
		}
		written += len(chunk)
		s.logger.Debug("upserted bar chunk",
			"chunk", i+1,
			"count", len(chunk),
			"duration", time.Since(start),
		)
	}
	return written, nil
}

// UpsertTickers implements Store.
func (s *Postgres) UpsertTickers(ctx context.Context, tickers []model.Ticker) (int, error) {
	written := 0
	for i, chunk := range chunks(tickers, s.chunkSize) {
		err := s.sendChunk(ctx, len(chunk), func(b *pgx.Batch) {
			for _, t := range chunk {
				b.Queue(upsertTickerSQL, tickerArgs(t)...)
			}
		})
		if err != nil {
			return written, fmt.Errorf("upsert tickers chunk %d: %w", i+1, err)
		}
		written += len(chunk)
	}
	return written, nil
}

// sendChunk runs n queued statements in one transaction.
func (s *Postgres) sendChunk(ctx context.Context, n int, queue func(*pgx.Batch)) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	queue(batch)

	results := tx.SendBatch(ctx, batch)
	for range n {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpsertDailyMover implements Store.
func (s *Postgres) UpsertDailyMover(ctx context.Context, m model.DailyMover) error {
	_, err := s.db.Exec(ctx, upsertDailyMoverSQL,
		m.Ticker, model.Day(m.Date), m.PreviousClose, m.CurrentClose, m.PercentChange, m.Volume, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert daily mover %s: %w", m.Ticker, err)
	}
	return nil
}

// UpsertWeeklyMover implements Store.
func (s *Postgres) UpsertWeeklyMover(ctx context.Context, m model.WeeklyMover) error {
	_, err := s.db.Exec(ctx, upsertWeeklyMoverSQL,
		m.Ticker, model.Day(m.WeekStartDate), model.Day(m.WeekEndDate),
		m.WeekStartClose, m.WeekEndClose, m.PercentChange, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert weekly mover %s: %w", m.Ticker, err)
	}
	return nil
}

// BarsBetween implements Store.
func (s *Postgres) BarsBetween(ctx context.Context, from, to time.Time, tickers ...string) ([]model.DailyBar, error) {
	query := `
		SELECT d.ticker, COALESCE(NULLIF(d.company_name, d.ticker), t.company_name, d.ticker), d.date, d.open_price, d.high_price, d.low_price,
			d.close_price, d.volume, d.market_cap, d.created_at
		FROM stocks_daily d
		LEFT JOIN tickers t ON t.ticker = d.ticker
		WHERE d.date >= $1 AND d.date <= $2`
	args := []any{model.Day(from), model.Day(to)}
	if syms := upperAll(tickers); len(syms) > 0 {
		query += ` AND d.ticker = ANY($3)`
		args = append(args, syms)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.DailyBar
	for rows.Next() {
		var b model.DailyBar
		if err := rows.Scan(&b.Ticker, &b.Name, &b.Date, &b.Open, &b.High, &b.Low,
			&b.Close, &b.Volume, &b.MarketCap, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = model.Day(b.Date)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ActiveTickers implements Store.
func (s *Postgres) ActiveTickers(ctx context.Context, offset, limit int) ([]model.Ticker, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ticker, COALESCE(company_name, ticker), COALESCE(sector, 'Unknown'), active
		FROM tickers
		WHERE active
		ORDER BY ticker
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query active tickers: %w", err)
	}
	defer rows.Close()

	return scanTickers(rows)
}

// SearchTickers implements Store.
func (s *Postgres) SearchTickers(ctx context.Context, symbolLike, nameLike string) ([]model.Ticker, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ticker, COALESCE(company_name, ticker), COALESCE(sector, 'Unknown'), active
		FROM tickers
		WHERE ticker ILIKE $1 AND COALESCE(company_name, '') ILIKE $2
		ORDER BY ticker`, likePattern(symbolLike), likePattern(nameLike))
	if err != nil {
		return nil, fmt.Errorf("search tickers: %w", err)
	}
	defer rows.Close()

	return scanTickers(rows)
}

func scanTickers(rows pgx.Rows) ([]model.Ticker, error) {
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
func (s *Postgres) DailyMovers(ctx context.Context, f MoverFilter) ([]model.DailyMover, error) {
	where, args := moverWhere("date", f, dollarPlaceholder, pgDate)
	rows, err := s.db.Query(ctx, `
		SELECT ticker, date, previous_close, current_close, percent_change, volume, created_at
		FROM daily_movers`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily movers: %w", err)
	}
	defer rows.Close()

	var out []model.DailyMover
	for rows.Next() {
		var m model.DailyMover
		if err := rows.Scan(&m.Ticker, &m.Date, &m.PreviousClose, &m.CurrentClose,
			&m.PercentChange, &m.Volume, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan daily mover: %w", err)
		}
		m.Date = model.Day(m.Date)
		out = append(out, m)
	}
	return out, rows.Err()
}

// WeeklyMovers implements Store.
func (s *Postgres) WeeklyMovers(ctx context.Context, f MoverFilter) ([]model.WeeklyMover, error) {
	where, args := moverWhere("week_end_date", f, dollarPlaceholder, pgDate)
	rows, err := s.db.Query(ctx, `
		SELECT ticker, week_start_date, week_end_date, week_start_close, week_end_close, percent_change, created_at
		FROM weekly_movers`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query weekly movers: %w", err)
	}
	defer rows.Close()

	var out []model.WeeklyMover
	for rows.Next() {
		var m model.WeeklyMover
		if err := rows.Scan(&m.Ticker, &m.WeekStartDate, &m.WeekEndDate, &m.WeekStartClose,
			&m.WeekEndClose, &m.PercentChange, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan weekly mover: %w", err)
		}
		m.WeekStartDate = model.Day(m.WeekStartDate)
		m.WeekEndDate = model.Day(m.WeekEndDate)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Movement implements MovementQuerier with the get_stocks_by_movement
// database function.
func (s *Postgres) Movement(ctx context.Context, start, end time.Time, minPct float64) ([]Movement, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ticker, company_name, start_close, end_close, percent_change
		FROM get_stocks_by_movement($1, $2, $3)`,
		model.Day(start), model.Day(end), minPct)
	if err != nil {
		return nil, fmt.Errorf("get_stocks_by_movement: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.Ticker, &m.Name, &m.StartClose, &m.EndClose, &m.PercentChange); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *Postgres) Close() error {
	s.db.Close()
	return nil
}

// moverWhere builds the WHERE clause shared by the mover queries.
func moverWhere(dateCol string, f MoverFilter, placeholder func(int) string, dateArg func(time.Time) any) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		args = append(args, dateArg(f.From))
		conds = append(conds, dateCol+" >= "+placeholder(len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, dateArg(f.To))
		conds = append(conds, dateCol+" <= "+placeholder(len(args)))
	}
	if f.MinAbsPct > 0 {
		args = append(args, f.MinAbsPct)
		conds = append(conds, "ABS(percent_change) >= "+placeholder(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func dollarPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

func pgDate(t time.Time) any { return model.Day(t) }

func likePattern(term string) string {
	return "%" + strings.TrimSpace(term) + "%"
}
