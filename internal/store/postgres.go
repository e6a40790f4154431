package store

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/eod-data/internal/model"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres wraps a connection pool.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS stocks_raw (
		ticker       TEXT             NOT NULL,
		window_start DATE             NOT NULL,
		volume       BIGINT           NOT NULL,
		open         DOUBLE PRECISION NOT NULL,
		close        DOUBLE PRECISION NOT NULL,
		high         DOUBLE PRECISION NOT NULL,
		low          DOUBLE PRECISION NOT NULL,
		transactions BIGINT           NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stocks_raw_ticker_date_idx ON stocks_raw (ticker, window_start)`,
	`CREATE INDEX IF NOT EXISTS stocks_raw_date_idx ON stocks_raw (window_start)`,

	`CREATE TABLE IF NOT EXISTS stocks_adjusted (
		ticker       TEXT             NOT NULL,
		window_start DATE             NOT NULL,
		volume       BIGINT           NOT NULL,
		open         DOUBLE PRECISION NOT NULL,
		close        DOUBLE PRECISION NOT NULL,
		high         DOUBLE PRECISION NOT NULL,
		low          DOUBLE PRECISION NOT NULL,
		transactions BIGINT           NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stocks_adjusted_ticker_date_idx ON stocks_adjusted (ticker, window_start)`,
	`CREATE INDEX IF NOT EXISTS stocks_adjusted_date_idx ON stocks_adjusted (window_start)`,

	`CREATE TABLE IF NOT EXISTS splits (
		id             TEXT             PRIMARY KEY,
		ticker         TEXT             NOT NULL,
		execution_date DATE             NOT NULL,
		split_from     DOUBLE PRECISION NOT NULL,
		split_to       DOUBLE PRECISION NOT NULL,
		split_factor   DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS splits_ticker_idx ON splits (ticker, execution_date)`,

	`CREATE TABLE IF NOT EXISTS options (
		ticker          TEXT             NOT NULL,
		underlying      TEXT             NOT NULL,
		expiration_date DATE             NOT NULL,
		option_type     TEXT             NOT NULL,
		strike_price    DOUBLE PRECISION NOT NULL,
		window_start    DATE             NOT NULL,
		volume          BIGINT           NOT NULL,
		open            DOUBLE PRECISION NOT NULL,
		close           DOUBLE PRECISION NOT NULL,
		high            DOUBLE PRECISION NOT NULL,
		low             DOUBLE PRECISION NOT NULL,
		transactions    BIGINT           NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS options_underlying_idx ON options (underlying, window_start)`,
	`CREATE INDEX IF NOT EXISTS options_date_idx ON options (window_start)`,

	`CREATE TABLE IF NOT EXISTS tickers (
		ticker           TEXT PRIMARY KEY,
		name             TEXT,
		market           TEXT,
		locale           TEXT,
		primary_exchange TEXT,
		type             TEXT,
		active           BOOLEAN NOT NULL,
		currency_name    TEXT,
		cik              TEXT,
		composite_figi   TEXT,
		share_class_figi TEXT,
		last_updated     TIMESTAMPTZ,
		delisted         TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS stocks_technical (
		ticker        TEXT NOT NULL,
		window_start  DATE NOT NULL,
		sma_20        DOUBLE PRECISION,
		sma_50        DOUBLE PRECISION,
		sma_200       DOUBLE PRECISION,
		volume_sma_20 DOUBLE PRECISION,
		atr_14        DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS stocks_technical_ticker_date_idx ON stocks_technical (ticker, window_start)`,
}

// dateColumn maps each table to the column used for date-range pushdown
// and stats. Tables without a date column map to "".
var dateColumn = map[Table]string{
	TableStocksRaw:      "window_start",
	TableStocksAdjusted: "window_start",
	TableSplits:         "execution_date",
	TableOptions:        "window_start",
	TableTickers:        "",
	TableTechnical:      "window_start",
}

// Init creates every table and index. Safe to re-run.
func (p *Postgres) Init(ctx context.Context) error {
	for _, stmt := range ddl {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Drop removes every table. Destructive.
func (p *Postgres) Drop(ctx context.Context) error {
	for _, t := range Tables {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t)); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return nil
}

// Exists reports whether the table has been created.
func (p *Postgres) Exists(ctx context.Context, table Table) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT to_regclass($1) IS NOT NULL`, string(table),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return exists, nil
}

// Stats returns row count and date range for one table.
func (p *Postgres) Stats(ctx context.Context, table Table) (TableStats, error) {
	var stats TableStats

	col := dateColumn[table]
	if col == "" {
		err := p.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT count(*) FROM %s`, table),
		).Scan(&stats.Rows)
		if err != nil {
			return TableStats{}, fmt.Errorf("stats %s: %w", table, err)
		}
		return stats, nil
	}

	var minDate, maxDate *time.Time
	err := p.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*), min(%s), max(%s) FROM %s`, col, col, table),
	).Scan(&stats.Rows, &minDate, &maxDate)
	if err != nil {
		return TableStats{}, fmt.Errorf("stats %s: %w", table, err)
	}
	if minDate != nil {
		stats.MinDate = model.Day(*minDate)
	}
	if maxDate != nil {
		stats.MaxDate = model.Day(*maxDate)
	}
	return stats, nil
}

// -----------------------------------------------------------------------------
// Writes
// -----------------------------------------------------------------------------

var priceBarColumns = []string{"ticker", "window_start", "volume", "open", "close", "high", "low", "transactions"}

func priceBarValues(bars []model.PriceBar) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(bars), func(i int) ([]any, error) {
		b := bars[i]
		return []any{b.Ticker, b.WindowStart, int64(b.Volume), b.Open, b.Close, b.High, b.Low, int64(b.Transactions)}, nil
	})
}

func (p *Postgres) WriteRaw(ctx context.Context, bars []model.PriceBar, mode Mode) error {
	return p.write(ctx, TableStocksRaw, mode, priceBarColumns, priceBarValues(bars))
}

func (p *Postgres) WriteAdjusted(ctx context.Context, bars []model.PriceBar, mode Mode) error {
	return p.write(ctx, TableStocksAdjusted, mode, priceBarColumns, priceBarValues(bars))
}

// ReplaceAdjustedTicker swaps out one ticker's adjusted history inside a
// single transaction.
func (p *Postgres) ReplaceAdjustedTicker(ctx context.Context, ticker string, bars []model.PriceBar) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", ticker, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM stocks_adjusted WHERE ticker = $1`, ticker); err != nil {
		return fmt.Errorf("delete adjusted %s: %w", ticker, err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{string(TableStocksAdjusted)}, priceBarColumns, priceBarValues(bars)); err != nil {
		return fmt.Errorf("copy adjusted %s: %w", ticker, err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) WriteSplits(ctx context.Context, splits []model.Split, mode Mode) error {
	cols := []string{"id", "ticker", "execution_date", "split_from", "split_to", "split_factor"}
	src := pgx.CopyFromSlice(len(splits), func(i int) ([]any, error) {
		s := splits[i]
		return []any{s.ID, s.Ticker, s.ExecutionDate, s.SplitFrom, s.SplitTo, s.SplitFactor}, nil
	})
	return p.write(ctx, TableSplits, mode, cols, src)
}

func (p *Postgres) WriteOptions(ctx context.Context, bars []model.OptionBar, mode Mode) error {
	cols := []string{"ticker", "underlying", "expiration_date", "option_type", "strike_price",
		"window_start", "volume", "open", "close", "high", "low", "transactions"}
	src := pgx.CopyFromSlice(len(bars), func(i int) ([]any, error) {
		b := bars[i]
		return []any{b.Ticker, b.Underlying, b.Expiration, string(b.Type), b.Strike,
			b.WindowStart, int64(b.Volume), b.Open, b.Close, b.High, b.Low, int64(b.Transactions)}, nil
	})
	return p.write(ctx, TableOptions, mode, cols, src)
}

func (p *Postgres) WriteTickers(ctx context.Context, infos []model.TickerInfo, mode Mode) error {
	cols := []string{"ticker", "name", "market", "locale", "primary_exchange", "type",
		"active", "currency_name", "cik", "composite_figi", "share_class_figi", "last_updated", "delisted"}
	src := pgx.CopyFromSlice(len(infos), func(i int) ([]any, error) {
		t := infos[i]
		return []any{t.Ticker, t.Name, t.Market, t.Locale, t.PrimaryExchange, t.Type,
			t.Active, t.CurrencyName, t.CIK, t.CompositeFIGI, t.ShareClassFIGI,
			nullTime(t.LastUpdated), nullTime(t.Delisted)}, nil
	})
	return p.write(ctx, TableTickers, mode, cols, src)
}

func (p *Postgres) WriteTechnical(ctx context.Context, rows []model.TechnicalRow, mode Mode) error {
	cols := []string{"ticker", "window_start", "sma_20", "sma_50", "sma_200", "volume_sma_20", "atr_14"}
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{r.Ticker, r.WindowStart,
			nullNaN(r.SMA20), nullNaN(r.SMA50), nullNaN(r.SMA200),
			nullNaN(r.VolumeSMA20), nullNaN(r.ATR14)}, nil
	})
	return p.write(ctx, TableTechnical, mode, cols, src)
}

// write performs the shared Append/Overwrite logic. Overwrite truncates and
// copies inside one transaction so a failed run cannot leave the table
// half-replaced.
func (p *Postgres) write(ctx context.Context, table Table, mode Mode, cols []string, src pgx.CopyFromSource) error {
	start := time.Now()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin write %s: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if mode == Overwrite {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{string(table)}, cols, src)
	if err != nil {
		return fmt.Errorf("copy into %s: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit write %s: %w", table, err)
	}

	p.logger.Debug("wrote table",
		"table", table,
		"rows", n,
		"overwrite", mode == Overwrite,
		"duration", time.Since(start),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Scans
// -----------------------------------------------------------------------------

func (p *Postgres) ScanRaw(ctx context.Context, f Filter) ([]model.PriceBar, error) {
	return p.scanBars(ctx, TableStocksRaw, f)
}

func (p *Postgres) ScanAdjusted(ctx context.Context, f Filter) ([]model.PriceBar, error) {
	return p.scanBars(ctx, TableStocksAdjusted, f)
}

func (p *Postgres) scanBars(ctx context.Context, table Table, f Filter) ([]model.PriceBar, error) {
	query := fmt.Sprintf(
		`SELECT ticker, window_start, volume, open, close, high, low, transactions FROM %s`, table)
	query, args := applyFilter(query, "window_start", f)
	query += ` ORDER BY ticker, window_start`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	defer rows.Close()

	var bars []model.PriceBar
	for rows.Next() {
		var b model.PriceBar
		var volume, transactions int64
		if err := rows.Scan(&b.Ticker, &b.WindowStart, &volume, &b.Open, &b.Close, &b.High, &b.Low, &transactions); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		b.WindowStart = model.Day(b.WindowStart)
		b.Volume = uint64(volume)
		b.Transactions = uint32(transactions)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (p *Postgres) ScanSplits(ctx context.Context, f Filter) ([]model.Split, error) {
	query := `SELECT id, ticker, execution_date, split_from, split_to, split_factor FROM splits`
	query, args := applyFilter(query, "execution_date", f)
	query += ` ORDER BY ticker, execution_date`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan splits: %w", err)
	}
	defer rows.Close()

	var splits []model.Split
	for rows.Next() {
		var s model.Split
		if err := rows.Scan(&s.ID, &s.Ticker, &s.ExecutionDate, &s.SplitFrom, &s.SplitTo, &s.SplitFactor); err != nil {
			return nil, fmt.Errorf("scan splits row: %w", err)
		}
		s.ExecutionDate = model.Day(s.ExecutionDate)
		splits = append(splits, s)
	}
	return splits, rows.Err()
}

func (p *Postgres) RawDates(ctx context.Context) ([]time.Time, error) {
	return p.distinctDates(ctx, TableStocksRaw)
}

func (p *Postgres) OptionDates(ctx context.Context) ([]time.Time, error) {
	return p.distinctDates(ctx, TableOptions)
}

func (p *Postgres) distinctDates(ctx context.Context, table Table) ([]time.Time, error) {
	rows, err := p.pool.Query(ctx,
		fmt.Sprintf(`SELECT DISTINCT window_start FROM %s ORDER BY window_start`, table))
	if err != nil {
		return nil, fmt.Errorf("distinct dates %s: %w", table, err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, model.Day(d))
	}
	return dates, rows.Err()
}

// applyFilter appends WHERE clauses for the pushdown filter and returns the
// rewritten query plus its positional args.
func applyFilter(query, dateCol string, f Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Ticker != "" {
		args = append(args, f.Ticker)
		clauses = append(clauses, fmt.Sprintf("ticker = $%d", len(args)))
	}
	if !f.Start.IsZero() {
		args = append(args, f.Start)
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", dateCol, len(args)))
	}
	if !f.End.IsZero() {
		args = append(args, f.End)
		clauses = append(clauses, fmt.Sprintf("%s <= $%d", dateCol, len(args)))
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	return query, args
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullNaN(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
