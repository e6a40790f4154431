package source

import (
	"context"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// DataType selects which flatfile family a source reads.
type DataType string

const (
	Stocks  DataType = "stocks"
	Options DataType = "options"
)

// DataSource reads daily flatfiles for one data type. Implementations
// exist for a local directory tree and for the vendor's S3-compatible
// flatfile service; both lay files out as
// {root}/{YYYY}/{MM}/{YYYY-MM-DD}.csv.gz.
type DataSource interface {
	// DiscoverAvailableDates lists every date that has a flatfile, sorted
	// ascending. Zero start/end leave that bound open.
	DiscoverAvailableDates(ctx context.Context, start, end time.Time) ([]time.Time, error)

	// ReadTableForDate decodes the flatfile for one date. The second
	// return is the number of malformed rows skipped during decoding.
	ReadTableForDate(ctx context.Context, day time.Time) ([]model.FlatfileRow, int, error)

	// Available reports whether a flatfile exists for the date.
	Available(ctx context.Context, day time.Time) (bool, error)

	// DateRange returns the earliest and latest dates that have files.
	// Both are zero when the source holds nothing.
	DateRange(ctx context.Context) (time.Time, time.Time, error)
}

// fileDate parses a flatfile name like "2020-10-14.csv.gz" into its civil
// date. ok is false for names that are not date-stamped flatfiles.
func fileDate(name string) (time.Time, bool) {
	const suffix = ".csv.gz"
	if len(name) != len("2006-01-02")+len(suffix) || name[len(name)-len(suffix):] != suffix {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", name[:len("2006-01-02")], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// inRange applies optional date bounds; zero bounds are open.
func inRange(day, start, end time.Time) bool {
	if !start.IsZero() && day.Before(start) {
		return false
	}
	if !end.IsZero() && day.After(end) {
		return false
	}
	return true
}
