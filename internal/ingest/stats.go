package ingest

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Stats accumulates counters across one engine run.
type Stats struct {
	RunID     string
	StartTime time.Time

	RawDaysLoaded int
	RawRows       int
	AdjustedRows  int

	SplitsSynced  int
	SplitWarnings int

	OptionDaysLoaded   int
	OptionRows         int
	OptionDecodeErrors int

	TickersSynced int
	TechnicalRows int

	GapsFound  int
	GapsFilled int

	LoadErrors int
}

// NewStats creates a stats block with a fresh run identifier.
func NewStats() *Stats {
	return &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now().UTC(),
	}
}

// Log emits a one-line run summary.
func (s *Stats) Log(logger *slog.Logger) {
	logger.Info("run summary",
		"run_id", s.RunID,
		"elapsed", time.Since(s.StartTime).Round(time.Millisecond),
		"raw_days_loaded", s.RawDaysLoaded,
		"raw_rows", s.RawRows,
		"adjusted_rows", s.AdjustedRows,
		"splits_synced", s.SplitsSynced,
		"split_warnings", s.SplitWarnings,
		"option_days_loaded", s.OptionDaysLoaded,
		"option_rows", s.OptionRows,
		"option_decode_errors", s.OptionDecodeErrors,
		"tickers_synced", s.TickersSynced,
		"technical_rows", s.TechnicalRows,
		"gaps_found", s.GapsFound,
		"gaps_filled", s.GapsFilled,
		"load_errors", s.LoadErrors,
	)
}
