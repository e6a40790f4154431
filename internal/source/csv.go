package source

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rickgao/eod-data/internal/model"
)

// Column names as they appear in the daily aggregate flatfile header.
var requiredColumns = []string{
	"ticker", "volume", "open", "close", "high", "low", "window_start", "transactions",
}

// decodeFlatfile reads a gzipped CSV flatfile into rows. Rows that fail to
// parse are skipped and counted rather than aborting the file; the header
// is located by name so column order does not matter.
func decodeFlatfile(r io.Reader) ([]model.FlatfileRow, int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	cr := csv.NewReader(gz)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, 0, fmt.Errorf("flatfile missing column %q", name)
		}
	}

	var (
		rows    []model.FlatfileRow
		skipped int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		row, ok := parseRecord(record, cols)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

func parseRecord(record []string, cols map[string]int) (model.FlatfileRow, bool) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	ticker := field("ticker")
	if ticker == "" {
		return model.FlatfileRow{}, false
	}

	volume, err := strconv.ParseUint(field("volume"), 10, 64)
	if err != nil {
		return model.FlatfileRow{}, false
	}
	windowStart, err := strconv.ParseInt(field("window_start"), 10, 64)
	if err != nil {
		return model.FlatfileRow{}, false
	}
	transactions, err := strconv.ParseUint(field("transactions"), 10, 32)
	if err != nil {
		return model.FlatfileRow{}, false
	}

	prices := [4]float64{}
	for i, name := range [4]string{"open", "close", "high", "low"} {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return model.FlatfileRow{}, false
		}
		prices[i] = v
	}

	return model.FlatfileRow{
		Ticker:       ticker,
		Volume:       volume,
		Open:         prices[0],
		Close:        prices[1],
		High:         prices[2],
		Low:          prices[3],
		WindowStart:  windowStart,
		Transactions: uint32(transactions),
	}, true
}
