package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFlatfile(t *testing.T, base string, dataType DataType, day time.Time, content string) {
	t.Helper()
	dir := filepath.Join(base, string(dataType), day.Format("2006"), day.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, day.Format("2006-01-02")+".csv.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocal_DiscoverAvailableDates(t *testing.T) {
	base := t.TempDir()
	days := []time.Time{
		model.Date(2024, 1, 3),
		model.Date(2024, 1, 2),
		model.Date(2024, 2, 1),
	}
	for _, d := range days {
		writeFlatfile(t, base, Stocks, d, sampleHeader)
	}

	src := NewLocal(base, Stocks, testLogger())

	got, err := src.DiscoverAvailableDates(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	want := []time.Time{
		model.Date(2024, 1, 2),
		model.Date(2024, 1, 3),
		model.Date(2024, 2, 1),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLocal_DiscoverAvailableDates_Bounded(t *testing.T) {
	base := t.TempDir()
	for _, d := range []time.Time{
		model.Date(2024, 1, 2),
		model.Date(2024, 1, 3),
		model.Date(2024, 1, 4),
	} {
		writeFlatfile(t, base, Stocks, d, sampleHeader)
	}

	src := NewLocal(base, Stocks, testLogger())

	got, err := src.DiscoverAvailableDates(context.Background(), model.Date(2024, 1, 3), model.Date(2024, 1, 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Equal(model.Date(2024, 1, 3)) {
		t.Errorf("got %v, want [2024-01-03]", got)
	}
}

func TestLocal_DiscoverAvailableDates_MissingDir(t *testing.T) {
	src := NewLocal(filepath.Join(t.TempDir(), "nope"), Stocks, testLogger())

	got, err := src.DiscoverAvailableDates(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestLocal_ReadTableForDate(t *testing.T) {
	base := t.TempDir()
	day := model.Date(2020, 10, 14)
	content := sampleHeader +
		"AAPL,100000,120.5,121.0,122.0,119.5,1602648000000000000,5000\n"
	writeFlatfile(t, base, Stocks, day, content)

	src := NewLocal(base, Stocks, testLogger())

	rows, skipped, err := src.ReadTableForDate(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 0 || len(rows) != 1 || rows[0].Ticker != "AAPL" {
		t.Errorf("rows = %+v, skipped = %d", rows, skipped)
	}
}

func TestLocal_ReadTableForDate_Missing(t *testing.T) {
	src := NewLocal(t.TempDir(), Stocks, testLogger())

	_, _, err := src.ReadTableForDate(context.Background(), model.Date(2024, 1, 2))
	if err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestLocal_Available(t *testing.T) {
	base := t.TempDir()
	day := model.Date(2024, 1, 2)
	writeFlatfile(t, base, Options, day, sampleHeader)

	src := NewLocal(base, Options, testLogger())

	ok, err := src.Available(context.Background(), day)
	if err != nil || !ok {
		t.Errorf("Available(existing) = %v, %v", ok, err)
	}
	ok, err = src.Available(context.Background(), model.Date(2024, 1, 3))
	if err != nil || ok {
		t.Errorf("Available(missing) = %v, %v", ok, err)
	}
}

func TestLocal_DateRange(t *testing.T) {
	base := t.TempDir()
	for _, d := range []time.Time{
		model.Date(2023, 12, 29),
		model.Date(2024, 1, 2),
	} {
		writeFlatfile(t, base, Stocks, d, sampleHeader)
	}

	src := NewLocal(base, Stocks, testLogger())

	min, max, err := src.DateRange(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !min.Equal(model.Date(2023, 12, 29)) || !max.Equal(model.Date(2024, 1, 2)) {
		t.Errorf("DateRange = %v..%v", min, max)
	}

	empty := NewLocal(t.TempDir(), Stocks, testLogger())
	min, max, err = empty.DateRange(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !min.IsZero() || !max.IsZero() {
		t.Errorf("empty DateRange = %v..%v, want zeros", min, max)
	}
}
