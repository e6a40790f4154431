package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/eod-data/internal/adjust"
	"github.com/rickgao/eod-data/internal/calendar"
	"github.com/rickgao/eod-data/internal/model"
	"github.com/rickgao/eod-data/internal/source"
	"github.com/rickgao/eod-data/internal/store"
	"github.com/rickgao/eod-data/internal/technical"
)

// MarketAPI is the slice of the reference-data API the engine needs.
type MarketAPI interface {
	ListSplits(ctx context.Context, start, end time.Time) ([]model.Split, error)
	ListTickers(ctx context.Context, market string, active bool) ([]model.TickerInfo, error)
}

// Engine loads daily flatfiles into the warehouse and keeps the derived
// tables consistent with them. One engine owns its store exclusively for
// the duration of a run.
type Engine struct {
	store   store.Store
	stocks  source.DataSource
	options source.DataSource // nil disables the options path
	api     MarketAPI
	cal     *calendar.NYSE
	logger  *slog.Logger

	stats *Stats
}

// NewEngine creates an engine. The options source may be nil.
func NewEngine(st store.Store, stocks, options source.DataSource, api MarketAPI, logger *slog.Logger) *Engine {
	return &Engine{
		store:   st,
		stocks:  stocks,
		options: options,
		api:     api,
		cal:     calendar.NewNYSE(),
		logger:  logger,
		stats:   NewStats(),
	}
}

// Stats returns the accumulated counters for this engine's run.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Update brings every table up to date in five phases: raw backfill,
// split refresh, full re-adjustment, technical indicators, and trading-day
// gap repair. Per-date load errors are counted and skipped; errors in the
// split, adjustment, or indicator phases abort the run because continuing
// would leave derived tables inconsistent with raw.
func (e *Engine) Update(ctx context.Context) error {
	e.logger.Info("update started", "run_id", e.stats.RunID)

	if _, err := e.BackfillRaw(ctx, time.Time{}, time.Time{}); err != nil {
		return fmt.Errorf("raw backfill: %w", err)
	}
	if e.options != nil {
		if _, err := e.BackfillOptions(ctx, time.Time{}, time.Time{}); err != nil {
			return fmt.Errorf("options backfill: %w", err)
		}
	}

	if _, err := e.RefreshSplits(ctx); err != nil {
		return fmt.Errorf("split refresh: %w", err)
	}
	if err := e.Readjust(ctx); err != nil {
		return fmt.Errorf("re-adjustment: %w", err)
	}
	if err := e.ComputeTechnicals(ctx); err != nil {
		return fmt.Errorf("technical indicators: %w", err)
	}

	filled, err := e.FillTradingDayGaps(ctx)
	if err != nil {
		return fmt.Errorf("gap repair: %w", err)
	}
	if filled > 0 {
		// Backfilled raw rows invalidate the derived tables.
		if err := e.Readjust(ctx); err != nil {
			return fmt.Errorf("re-adjustment after gap repair: %w", err)
		}
		if err := e.ComputeTechnicals(ctx); err != nil {
			return fmt.Errorf("technical indicators after gap repair: %w", err)
		}
	}

	e.logger.Info("update finished", "run_id", e.stats.RunID)
	return nil
}

// LoadRawDay loads one stock flatfile into stocks_raw. An empty file is
// logged and skipped. Returns the number of rows appended.
func (e *Engine) LoadRawDay(ctx context.Context, day time.Time) (int, error) {
	rows, skipped, err := e.stocks.ReadTableForDate(ctx, day)
	if err != nil {
		return 0, err
	}
	if skipped > 0 {
		e.logger.Warn("malformed flatfile rows skipped",
			"date", day.Format("2006-01-02"),
			"skipped", skipped,
		)
	}
	if len(rows) == 0 {
		e.logger.Warn("empty flatfile", "date", day.Format("2006-01-02"))
		return 0, nil
	}

	bars := make([]model.PriceBar, len(rows))
	for i, r := range rows {
		bars[i] = model.PriceBar{
			Ticker:       r.Ticker,
			WindowStart:  r.WindowDate(),
			Volume:       r.Volume,
			Open:         r.Open,
			Close:        r.Close,
			High:         r.High,
			Low:          r.Low,
			Transactions: r.Transactions,
		}
	}

	if err := e.store.WriteRaw(ctx, bars, store.Append); err != nil {
		return 0, fmt.Errorf("write raw bars: %w", err)
	}

	e.stats.RawDaysLoaded++
	e.stats.RawRows += len(bars)
	return len(bars), nil
}

// BackfillRaw loads every discoverable stock flatfile date not yet stored,
// oldest first. Individual date failures are counted and skipped so one
// bad file cannot stall the rest of the backfill. Returns the number of
// dates loaded.
func (e *Engine) BackfillRaw(ctx context.Context, start, end time.Time) (int, error) {
	stored, err := e.store.RawDates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored dates: %w", err)
	}
	missing, err := e.missingDates(ctx, e.stocks, stored, start, end)
	if err != nil {
		return 0, err
	}

	e.logger.Info("raw backfill", "missing_dates", len(missing))
	loaded := 0
	for _, day := range missing {
		if ctx.Err() != nil {
			return loaded, ctx.Err()
		}
		if _, err := e.LoadRawDay(ctx, day); err != nil {
			e.stats.LoadErrors++
			e.logger.Error("failed to load stock flatfile",
				"date", day.Format("2006-01-02"),
				"error", err,
			)
			continue
		}
		loaded++
	}
	return loaded, nil
}

// missingDates computes source dates minus stored dates within bounds,
// ascending.
func (e *Engine) missingDates(ctx context.Context, src source.DataSource, stored []time.Time, start, end time.Time) ([]time.Time, error) {
	available, err := src.DiscoverAvailableDates(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("discover available dates: %w", err)
	}

	have := make(map[time.Time]bool, len(stored))
	for _, d := range stored {
		have[model.Day(d)] = true
	}

	var missing []time.Time
	for _, d := range available {
		if !have[model.Day(d)] {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

// RefreshSplits replaces the splits table with a fresh bulk download
// covering the earliest stored raw date through today. Records are
// deduplicated by the upstream id; ratio validation problems are logged
// as advisory warnings but the records are kept. Returns the number of
// splits stored.
func (e *Engine) RefreshSplits(ctx context.Context) (int, error) {
	stats, err := e.store.Stats(ctx, store.TableStocksRaw)
	if err != nil {
		return 0, fmt.Errorf("stat stocks_raw: %w", err)
	}
	if stats.MinDate.IsZero() {
		e.logger.Warn("no raw data stored, skipping split refresh")
		return 0, nil
	}

	fetched, err := e.api.ListSplits(ctx, stats.MinDate, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("fetch splits: %w", err)
	}

	byID := make(map[string]model.Split, len(fetched))
	for _, s := range fetched {
		if s.SplitFrom <= 0 || s.SplitTo <= 0 {
			e.stats.SplitWarnings++
			e.logger.Warn("split with non-positive ratio",
				"ticker", s.Ticker,
				"split_from", s.SplitFrom,
				"split_to", s.SplitTo,
			)
		}
		byID[s.ID] = s
	}
	if dups := len(fetched) - len(byID); dups > 0 {
		e.logger.Warn("duplicate splits removed from api response", "count", dups)
	}

	splits := make([]model.Split, 0, len(byID))
	for _, s := range byID {
		splits = append(splits, s)
	}

	if err := e.store.WriteSplits(ctx, splits, store.Overwrite); err != nil {
		return 0, fmt.Errorf("write splits: %w", err)
	}

	e.stats.SplitsSynced = len(splits)
	e.logger.Info("splits refreshed", "count", len(splits))
	return len(splits), nil
}

// Readjust rebuilds the entire stocks_adjusted table from stocks_raw and
// the current splits table.
func (e *Engine) Readjust(ctx context.Context) error {
	raw, err := e.store.ScanRaw(ctx, store.Filter{})
	if err != nil {
		return fmt.Errorf("scan raw: %w", err)
	}
	splits, err := e.store.ScanSplits(ctx, store.Filter{})
	if err != nil {
		return fmt.Errorf("scan splits: %w", err)
	}

	adjusted := adjust.Adjust(raw, splits)
	if err := e.store.WriteAdjusted(ctx, adjusted, store.Overwrite); err != nil {
		return fmt.Errorf("write adjusted: %w", err)
	}

	e.stats.AdjustedRows = len(adjusted)
	e.logger.Info("adjusted table rebuilt", "rows", len(adjusted))
	return nil
}

// ReadjustTicker rebuilds the adjusted rows of one ticker in place,
// leaving the rest of the table untouched.
func (e *Engine) ReadjustTicker(ctx context.Context, ticker string) error {
	raw, err := e.store.ScanRaw(ctx, store.Filter{Ticker: ticker})
	if err != nil {
		return fmt.Errorf("scan raw for %s: %w", ticker, err)
	}
	splits, err := e.store.ScanSplits(ctx, store.Filter{Ticker: ticker})
	if err != nil {
		return fmt.Errorf("scan splits for %s: %w", ticker, err)
	}

	adjusted := adjust.Adjust(raw, splits)
	if err := e.store.ReplaceAdjustedTicker(ctx, ticker, adjusted); err != nil {
		return fmt.Errorf("replace adjusted rows for %s: %w", ticker, err)
	}

	e.logger.Info("ticker re-adjusted", "ticker", ticker, "rows", len(adjusted))
	return nil
}

// ComputeTechnicals rebuilds the stocks_technical table from the adjusted
// bars.
func (e *Engine) ComputeTechnicals(ctx context.Context) error {
	adjusted, err := e.store.ScanAdjusted(ctx, store.Filter{})
	if err != nil {
		return fmt.Errorf("scan adjusted: %w", err)
	}

	rows := technical.Compute(adjusted)
	if err := e.store.WriteTechnical(ctx, rows, store.Overwrite); err != nil {
		return fmt.Errorf("write technical: %w", err)
	}

	e.stats.TechnicalRows = len(rows)
	e.logger.Info("technical indicators rebuilt", "rows", len(rows))
	return nil
}

// FillTradingDayGaps finds NYSE trading days inside the stored raw date
// range that have no stored rows, and backfills any whose flatfile exists
// at the source. Days the source cannot provide are logged and left as
// gaps. Returns the number of dates backfilled.
func (e *Engine) FillTradingDayGaps(ctx context.Context) (int, error) {
	stored, err := e.store.RawDates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored dates: %w", err)
	}
	if len(stored) < 2 {
		return 0, nil
	}

	have := make(map[time.Time]bool, len(stored))
	for _, d := range stored {
		have[model.Day(d)] = true
	}

	expected := e.cal.TradingDays(stored[0], stored[len(stored)-1])
	var gaps []time.Time
	for _, d := range expected {
		if !have[d] {
			gaps = append(gaps, d)
		}
	}
	e.stats.GapsFound = len(gaps)
	if len(gaps) == 0 {
		e.logger.Info("no trading-day gaps")
		return 0, nil
	}
	e.logger.Warn("trading-day gaps detected", "count", len(gaps))

	filled := 0
	for _, day := range gaps {
		if ctx.Err() != nil {
			return filled, ctx.Err()
		}
		ok, err := e.stocks.Available(ctx, day)
		if err != nil {
			e.stats.LoadErrors++
			e.logger.Error("gap availability probe failed",
				"date", day.Format("2006-01-02"),
				"error", err,
			)
			continue
		}
		if !ok {
			e.logger.Warn("gap date not available at source", "date", day.Format("2006-01-02"))
			continue
		}
		if _, err := e.LoadRawDay(ctx, day); err != nil {
			e.stats.LoadErrors++
			e.logger.Error("failed to backfill gap date",
				"date", day.Format("2006-01-02"),
				"error", err,
			)
			continue
		}
		filled++
	}

	e.stats.GapsFilled = filled
	e.logger.Info("gap repair finished", "found", len(gaps), "filled", filled)
	return filled, nil
}
