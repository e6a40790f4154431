package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/eod-data/internal/model"
	"github.com/rickgao/eod-data/internal/occ"
	"github.com/rickgao/eod-data/internal/store"
)

// How many per-row decode failures to log in full before going quiet.
const maxLoggedDecodeErrors = 5

// LoadOptionsDay loads one options flatfile into the options table,
// decoding each row's contract ticker. Rows whose ticker fails to decode
// are skipped and counted; the first few are logged in full.
func (e *Engine) LoadOptionsDay(ctx context.Context, day time.Time) (int, error) {
	rows, skipped, err := e.options.ReadTableForDate(ctx, day)
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

	bars := make([]model.OptionBar, 0, len(rows))
	decodeErrors := 0
	for _, r := range rows {
		contract, err := occ.Decode(r.Ticker)
		if err != nil {
			decodeErrors++
			if decodeErrors <= maxLoggedDecodeErrors {
				e.logger.Warn("undecodable options ticker skipped",
					"ticker", r.Ticker,
					"date", day.Format("2006-01-02"),
					"error", err,
				)
			}
			continue
		}
		bars = append(bars, model.OptionBar{
			Ticker:       occ.StripMarker(r.Ticker),
			Underlying:   contract.Underlying,
			Expiration:   contract.Expiration,
			Type:         contract.Type,
			Strike:       contract.Strike,
			WindowStart:  r.WindowDate(),
			Volume:       r.Volume,
			Open:         r.Open,
			Close:        r.Close,
			High:         r.High,
			Low:          r.Low,
			Transactions: r.Transactions,
		})
	}
	if decodeErrors > maxLoggedDecodeErrors {
		e.logger.Warn("further decode failures suppressed",
			"date", day.Format("2006-01-02"),
			"total", decodeErrors,
		)
	}
	e.stats.OptionDecodeErrors += decodeErrors

	if len(bars) == 0 {
		return 0, nil
	}
	if err := e.store.WriteOptions(ctx, bars, store.Append); err != nil {
		return 0, fmt.Errorf("write option bars: %w", err)
	}

	e.stats.OptionDaysLoaded++
	e.stats.OptionRows += len(bars)
	return len(bars), nil
}

// BackfillOptions loads every discoverable options flatfile date not yet
// stored, oldest first, with the same per-date error tolerance as the
// stock backfill.
func (e *Engine) BackfillOptions(ctx context.Context, start, end time.Time) (int, error) {
	stored, err := e.store.OptionDates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored option dates: %w", err)
	}
	missing, err := e.missingDates(ctx, e.options, stored, start, end)
	if err != nil {
		return 0, err
	}

	e.logger.Info("options backfill", "missing_dates", len(missing))
	loaded := 0
	for _, day := range missing {
		if ctx.Err() != nil {
			return loaded, ctx.Err()
		}
		if _, err := e.LoadOptionsDay(ctx, day); err != nil {
			e.stats.LoadErrors++
			e.logger.Error("failed to load options flatfile",
				"date", day.Format("2006-01-02"),
				"error", err,
			)
			continue
		}
		loaded++
	}
	return loaded, nil
}
