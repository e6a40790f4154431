package ingest

import (
	"context"
	"fmt"

	"github.com/rickgao/eod-data/internal/model"
	"github.com/rickgao/eod-data/internal/store"
)

// SyncTickers replaces the tickers table with a fresh bulk download of
// active stock symbols. Symbols that fail the format check are skipped
// with a warning. Returns the number of tickers stored.
func (e *Engine) SyncTickers(ctx context.Context) (int, error) {
	fetched, err := e.api.ListTickers(ctx, "stocks", true)
	if err != nil {
		return 0, fmt.Errorf("fetch tickers: %w", err)
	}

	infos := make([]model.TickerInfo, 0, len(fetched))
	invalid := 0
	for _, t := range fetched {
		if !validSymbol(t.Ticker) {
			invalid++
			e.logger.Warn("invalid ticker symbol skipped", "ticker", t.Ticker)
			continue
		}
		infos = append(infos, t)
	}
	if invalid > 0 {
		e.logger.Warn("tickers failed symbol validation", "count", invalid)
	}

	if err := e.store.WriteTickers(ctx, infos, store.Overwrite); err != nil {
		return 0, fmt.Errorf("write tickers: %w", err)
	}

	e.stats.TickersSynced = len(infos)
	e.logger.Info("tickers synced", "count", len(infos))
	return len(infos), nil
}

// validSymbol accepts 1-10 characters of uppercase letters and dots,
// covering share classes like BRK.A.
func validSymbol(s string) bool {
	if len(s) < 1 || len(s) > 10 {
		return false
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && c != '.' {
			return false
		}
	}
	return true
}
