package model

import "time"

// Day truncates a time to its civil date at UTC midnight. Dates are the
// only time granularity in this system; every date-valued field and every
// map key is normalized through Day so equality comparisons hold.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date constructs a civil date at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// -----------------------------------------------------------------------------
// Flatfile Types
// -----------------------------------------------------------------------------

// FlatfileRow is one record as delivered in a daily flatfile, before any
// transformation. window_start arrives as nanoseconds since epoch.
type FlatfileRow struct {
	Ticker       string  // Raw ticker (options carry the "O:" marker)
	Volume       uint64  // Shares/contracts traded
	Open         float64 // Opening price
	Close        float64 // Closing price
	High         float64 // Session high
	Low          float64 // Session low
	WindowStart  int64   // Bar start, nanoseconds since epoch
	Transactions uint32  // Trade count
}

// WindowDate returns the civil date of the bar's window start.
func (r FlatfileRow) WindowDate() time.Time {
	return Day(time.Unix(0, r.WindowStart).UTC())
}

// -----------------------------------------------------------------------------
// Stored Types
// -----------------------------------------------------------------------------

// PriceBar is one daily OHLCV bar for an equity. The raw and adjusted tables
// share this shape; only the price fields differ between them. Volume and
// transaction counts are never adjusted.
type PriceBar struct {
	Ticker       string    // Equity symbol
	WindowStart  time.Time // Civil date of the bar (UTC midnight)
	Volume       uint64
	Open         float64
	Close        float64
	High         float64
	Low          float64
	Transactions uint32
}

// Split is one corporate split action. ID is the upstream source's globally
// unique identifier and the deduplication key.
type Split struct {
	ID            string    // Upstream unique id (dedup key)
	Ticker        string    // Equity symbol
	ExecutionDate time.Time // Date the split took effect
	SplitFrom     float64   // Shares before
	SplitTo       float64   // Shares after
	SplitFactor   float64   // SplitTo / SplitFrom; >1 forward, <1 reverse
}

// OptionType is the contract right encoded in an options ticker.
type OptionType string

const (
	Call OptionType = "C"
	Put  OptionType = "P"
)

// OptionBar is one daily OHLCV bar for a listed options contract, with the
// contract terms decoded out of the ticker.
type OptionBar struct {
	Ticker       string     // Contract ticker with the market marker stripped
	Underlying   string     // Underlying equity symbol (letters only)
	Expiration   time.Time  // Contract expiration date
	Type         OptionType // Call or Put
	Strike       float64    // Strike price in dollars
	WindowStart  time.Time  // Civil date of the bar
	Volume       uint64
	Open         float64
	Close        float64
	High         float64
	Low          float64
	Transactions uint32
}

// TickerInfo is reference metadata for one listed symbol.
type TickerInfo struct {
	Ticker          string
	Name            string
	Market          string // e.g. "stocks"
	Locale          string
	PrimaryExchange string
	Type            string // Security type code (CS, ETF, ...)
	Active          bool
	CurrencyName    string
	CIK             string
	CompositeFIGI   string
	ShareClassFIGI  string
	LastUpdated     time.Time // Zero when the source omits it
	Delisted        time.Time // Zero unless delisted
}

// TechnicalRow holds derived indicators for one ticker/date. Fields are NaN
// until enough history exists to fill the indicator's window.
type TechnicalRow struct {
	Ticker      string
	WindowStart time.Time
	SMA20       float64 // 20-day simple moving average of adjusted close
	SMA50       float64
	SMA200      float64
	VolumeSMA20 float64 // 20-day simple moving average of volume
	ATR14       float64 // 14-day average true range
}
