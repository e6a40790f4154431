package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// Memory is an in-process Store with the same semantics as Postgres.
// It backs the engine and verifier tests.
type Memory struct {
	mu          sync.Mutex
	initialized bool

	raw       []model.PriceBar
	adjusted  []model.PriceBar
	splits    []model.Split
	options   []model.OptionBar
	tickers   []model.TickerInfo
	technical []model.TechnicalRow
}

// NewMemory returns an initialized in-memory store.
func NewMemory() *Memory {
	return &Memory{initialized: true}
}

func (m *Memory) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

func (m *Memory) Drop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw, m.adjusted, m.splits, m.options, m.tickers, m.technical = nil, nil, nil, nil, nil, nil
	m.initialized = false
	return nil
}

func (m *Memory) Exists(ctx context.Context, table Table) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized, nil
}

func (m *Memory) Stats(ctx context.Context, table Table) (TableStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats TableStats
	track := func(d time.Time) {
		if stats.MinDate.IsZero() || d.Before(stats.MinDate) {
			stats.MinDate = d
		}
		if stats.MaxDate.IsZero() || d.After(stats.MaxDate) {
			stats.MaxDate = d
		}
	}

	switch table {
	case TableStocksRaw:
		stats.Rows = int64(len(m.raw))
		for _, b := range m.raw {
			track(b.WindowStart)
		}
	case TableStocksAdjusted:
		stats.Rows = int64(len(m.adjusted))
		for _, b := range m.adjusted {
			track(b.WindowStart)
		}
	case TableSplits:
		stats.Rows = int64(len(m.splits))
		for _, s := range m.splits {
			track(s.ExecutionDate)
		}
	case TableOptions:
		stats.Rows = int64(len(m.options))
		for _, b := range m.options {
			track(b.WindowStart)
		}
	case TableTickers:
		stats.Rows = int64(len(m.tickers))
	case TableTechnical:
		stats.Rows = int64(len(m.technical))
		for _, r := range m.technical {
			track(r.WindowStart)
		}
	}
	return stats, nil
}

func (m *Memory) WriteRaw(ctx context.Context, bars []model.PriceBar, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = appendOrReplace(m.raw, bars, mode)
	return nil
}

func (m *Memory) WriteAdjusted(ctx context.Context, bars []model.PriceBar, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjusted = appendOrReplace(m.adjusted, bars, mode)
	return nil
}

func (m *Memory) ReplaceAdjustedTicker(ctx context.Context, ticker string, bars []model.PriceBar) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.adjusted[:0:0]
	for _, b := range m.adjusted {
		if b.Ticker != ticker {
			kept = append(kept, b)
		}
	}
	m.adjusted = append(kept, bars...)
	return nil
}

func (m *Memory) WriteSplits(ctx context.Context, splits []model.Split, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.splits = appendOrReplace(m.splits, splits, mode)
	return nil
}

func (m *Memory) WriteOptions(ctx context.Context, bars []model.OptionBar, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = appendOrReplace(m.options, bars, mode)
	return nil
}

func (m *Memory) WriteTickers(ctx context.Context, infos []model.TickerInfo, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers = appendOrReplace(m.tickers, infos, mode)
	return nil
}

func (m *Memory) WriteTechnical(ctx context.Context, rows []model.TechnicalRow, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.technical = appendOrReplace(m.technical, rows, mode)
	return nil
}

func appendOrReplace[T any](existing, incoming []T, mode Mode) []T {
	if mode == Overwrite {
		return append([]T(nil), incoming...)
	}
	return append(existing, incoming...)
}

func (m *Memory) ScanRaw(ctx context.Context, f Filter) ([]model.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterBars(m.raw, f), nil
}

func (m *Memory) ScanAdjusted(ctx context.Context, f Filter) ([]model.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterBars(m.adjusted, f), nil
}

func filterBars(bars []model.PriceBar, f Filter) []model.PriceBar {
	var out []model.PriceBar
	for _, b := range bars {
		if matches(f, b.Ticker, b.WindowStart) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].WindowStart.Before(out[j].WindowStart)
	})
	return out
}

func (m *Memory) ScanSplits(ctx context.Context, f Filter) ([]model.Split, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Split
	for _, s := range m.splits {
		if matches(f, s.Ticker, s.ExecutionDate) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].ExecutionDate.Before(out[j].ExecutionDate)
	})
	return out, nil
}

func matches(f Filter, ticker string, d time.Time) bool {
	if f.Ticker != "" && ticker != f.Ticker {
		return false
	}
	if !f.Start.IsZero() && d.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && d.After(f.End) {
		return false
	}
	return true
}

func (m *Memory) RawDates(ctx context.Context) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[time.Time]bool)
	for _, b := range m.raw {
		seen[model.Day(b.WindowStart)] = true
	}
	return sortedDates(seen), nil
}

func (m *Memory) OptionDates(ctx context.Context) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[time.Time]bool)
	for _, b := range m.options {
		seen[model.Day(b.WindowStart)] = true
	}
	return sortedDates(seen), nil
}

func sortedDates(set map[time.Time]bool) []time.Time {
	dates := make([]time.Time, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Tickers returns the stored ticker metadata; test helper.
func (m *Memory) Tickers() []model.TickerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.TickerInfo(nil), m.tickers...)
}

// Technical returns the stored indicator rows; test helper.
func (m *Memory) Technical() []model.TechnicalRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.TechnicalRow(nil), m.technical...)
}

// Options returns the stored option bars; test helper.
func (m *Memory) Options() []model.OptionBar {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OptionBar(nil), m.options...)
}
