package store

import (
	"context"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// Mode selects write semantics for a table write.
type Mode int

const (
	// Append adds rows to the table.
	Append Mode = iota
	// Overwrite atomically replaces the table's full contents.
	Overwrite
)

// Table names the logical tables owned by the warehouse.
type Table string

const (
	TableStocksRaw      Table = "stocks_raw"
	TableStocksAdjusted Table = "stocks_adjusted"
	TableSplits         Table = "splits"
	TableOptions        Table = "options"
	TableTickers        Table = "tickers"
	TableTechnical      Table = "stocks_technical"
)

// Tables lists every logical table, in display order.
var Tables = []Table{
	TableStocksRaw,
	TableStocksAdjusted,
	TableSplits,
	TableOptions,
	TableTickers,
	TableTechnical,
}

// Filter restricts a scan. Zero values mean "no restriction"; the partition
// key (ticker) and date range are pushed down to the underlying store.
type Filter struct {
	Ticker string
	Start  time.Time // Inclusive lower bound on the table's date column
	End    time.Time // Inclusive upper bound
}

// TableStats summarizes one table. MinDate/MaxDate are zero for empty
// tables and for tables without a date column.
type TableStats struct {
	Rows    int64
	MinDate time.Time
	MaxDate time.Time
}

// Store is the storage boundary. One running instance owns the store
// exclusively; writes are not retried and any storage error is fatal to
// the run.
type Store interface {
	// Init creates all tables (idempotent). Drop destroys them.
	Init(ctx context.Context) error
	Drop(ctx context.Context) error

	Exists(ctx context.Context, table Table) (bool, error)
	Stats(ctx context.Context, table Table) (TableStats, error)

	WriteRaw(ctx context.Context, bars []model.PriceBar, mode Mode) error
	WriteAdjusted(ctx context.Context, bars []model.PriceBar, mode Mode) error
	// ReplaceAdjustedTicker overwrites the adjusted rows of a single ticker,
	// leaving every other ticker untouched.
	ReplaceAdjustedTicker(ctx context.Context, ticker string, bars []model.PriceBar) error
	WriteSplits(ctx context.Context, splits []model.Split, mode Mode) error
	WriteOptions(ctx context.Context, bars []model.OptionBar, mode Mode) error
	WriteTickers(ctx context.Context, infos []model.TickerInfo, mode Mode) error
	WriteTechnical(ctx context.Context, rows []model.TechnicalRow, mode Mode) error

	ScanRaw(ctx context.Context, f Filter) ([]model.PriceBar, error)
	ScanAdjusted(ctx context.Context, f Filter) ([]model.PriceBar, error)
	ScanSplits(ctx context.Context, f Filter) ([]model.Split, error)

	// RawDates returns the distinct dates present in stocks_raw, ascending.
	RawDates(ctx context.Context) ([]time.Time, error)
	// OptionDates returns the distinct dates present in options, ascending.
	OptionDates(ctx context.Context) ([]time.Time, error)
}
