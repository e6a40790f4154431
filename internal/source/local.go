package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// Local reads flatfiles from a directory tree on disk.
type Local struct {
	base   string
	logger *slog.Logger
}

// NewLocal creates a local source rooted at {basePath}/{dataType}.
func NewLocal(basePath string, dataType DataType, logger *slog.Logger) *Local {
	return &Local{
		base:   filepath.Join(basePath, string(dataType)),
		logger: logger.With("source", "local", "data_type", string(dataType)),
	}
}

func (l *Local) path(day time.Time) string {
	return filepath.Join(
		l.base,
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", int(day.Month())),
		day.Format("2006-01-02")+".csv.gz",
	)
}

// DiscoverAvailableDates walks the directory tree and returns every
// date-stamped flatfile within the optional bounds, sorted ascending.
func (l *Local) DiscoverAvailableDates(_ context.Context, start, end time.Time) ([]time.Time, error) {
	if _, err := os.Stat(l.base); errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("flatfile directory does not exist", "path", l.base)
		return nil, nil
	}

	var dates []time.Time
	err := filepath.WalkDir(l.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		day, ok := fileDate(d.Name())
		if !ok {
			return nil
		}
		if inRange(day, start, end) {
			dates = append(dates, day)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.base, err)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// ReadTableForDate decodes the flatfile for one date.
func (l *Local) ReadTableForDate(_ context.Context, day time.Time) ([]model.FlatfileRow, int, error) {
	path := l.path(day)
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return decodeFlatfile(f)
}

// Available reports whether a flatfile exists for the date.
func (l *Local) Available(_ context.Context, day time.Time) (bool, error) {
	_, err := os.Stat(l.path(day))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DateRange reports the earliest and latest flatfile dates on disk.
func (l *Local) DateRange(ctx context.Context) (time.Time, time.Time, error) {
	dates, err := l.DiscoverAvailableDates(ctx, time.Time{}, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	return dates[0], dates[len(dates)-1], nil
}
