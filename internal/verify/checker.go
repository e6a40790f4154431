package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rickgao/eod-data/internal/model"
	"github.com/rickgao/eod-data/internal/store"
)

// PriceTolerancePercent is the largest |difference| between a stored
// adjusted close and the reference API's adjusted close that still passes.
const PriceTolerancePercent = 0.1

// ErrVerificationFailed is returned when any spot check fails the
// tolerance. Checks that could not run (missing data on either side)
// count as errors, not failures.
var ErrVerificationFailed = errors.New("spot-check verification failed")

// PriceReader is the slice of the store the checker reads.
type PriceReader interface {
	ScanAdjusted(ctx context.Context, f store.Filter) ([]model.PriceBar, error)
	ScanSplits(ctx context.Context, f store.Filter) ([]model.Split, error)
}

// AggregateAPI serves reference adjusted prices for single dates.
type AggregateAPI interface {
	DailyAggregate(ctx context.Context, ticker string, day time.Time, adjusted bool) (*model.PriceBar, error)
}

// Checker spot-checks stored adjusted prices against the reference API.
type Checker struct {
	store  PriceReader
	api    AggregateAPI
	logger *slog.Logger

	// rateLimit paces the per-date API calls.
	rateLimit time.Duration
	// now is replaceable in tests.
	now func() time.Time
}

// NewChecker creates a spot checker.
func NewChecker(st PriceReader, api AggregateAPI, rateLimit time.Duration, logger *slog.Logger) *Checker {
	return &Checker{
		store:     st,
		api:       api,
		logger:    logger,
		rateLimit: rateLimit,
		now:       time.Now,
	}
}

// CheckStatus classifies one date probe.
type CheckStatus string

const (
	StatusPass  CheckStatus = "pass"
	StatusFail  CheckStatus = "fail"
	StatusError CheckStatus = "error"
)

// CheckDetail is the outcome of probing one ticker/date.
type CheckDetail struct {
	Date        time.Time
	Status      CheckStatus
	StoredClose float64
	APIClose    float64
	DiffPercent float64
	Message     string
}

// TickerResult aggregates the probes for one ticker.
type TickerResult struct {
	Ticker       string
	DatesChecked int
	Passed       int
	Failed       int
	Errors       int
	Details      []CheckDetail
}

// Report aggregates a full verification run.
type Report struct {
	TickersChecked int
	TotalChecks    int
	Passed         int
	Failed         int
	Errors         int
	TickerResults  []TickerResult
}

// Run samples tickers that split inside the lookback window and probes
// each split's surrounding dates (30 days before, the day before, the
// execution day, and the day after) against the reference API. Returns
// ErrVerificationFailed when any probe fails the tolerance; probes that
// could not run are reported as errors but do not fail the run.
func (c *Checker) Run(ctx context.Context, sampleSize, lookbackDays int) (*Report, error) {
	end := model.Day(c.now().UTC())
	start := end.AddDate(0, 0, -lookbackDays)

	splits, err := c.store.ScanSplits(ctx, store.Filter{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("scan splits: %w", err)
	}

	byTicker := make(map[string][]model.Split)
	for _, s := range splits {
		byTicker[s.Ticker] = append(byTicker[s.Ticker], s)
	}
	if len(byTicker) == 0 {
		c.logger.Warn("no tickers with splits in lookback window",
			"lookback_days", lookbackDays,
		)
		return &Report{}, nil
	}

	tickers := make([]string, 0, len(byTicker))
	for t := range byTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	rand.Shuffle(len(tickers), func(i, j int) {
		tickers[i], tickers[j] = tickers[j], tickers[i]
	})
	if sampleSize < len(tickers) {
		tickers = tickers[:sampleSize]
	}

	c.logger.Info("spot check starting",
		"sampled", len(tickers),
		"with_splits", len(byTicker),
	)

	report := &Report{}
	for _, ticker := range tickers {
		result, err := c.checkTicker(ctx, ticker, probeDates(byTicker[ticker]))
		if err != nil {
			return nil, err
		}
		report.TickersChecked++
		report.TotalChecks += result.DatesChecked
		report.Passed += result.Passed
		report.Failed += result.Failed
		report.Errors += result.Errors
		report.TickerResults = append(report.TickerResults, result)

		level := slog.LevelInfo
		if result.Failed > 0 {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "ticker checked",
			"ticker", ticker,
			"passed", result.Passed,
			"failed", result.Failed,
			"errors", result.Errors,
		)
	}

	c.logSummary(report)
	if report.Failed > 0 {
		return report, fmt.Errorf("%d of %d checks failed: %w",
			report.Failed, report.TotalChecks, ErrVerificationFailed)
	}
	return report, nil
}

// probeDates expands each split into its probe dates, deduplicated and
// sorted.
func probeDates(splits []model.Split) []time.Time {
	set := make(map[time.Time]bool)
	for _, s := range splits {
		d := model.Day(s.ExecutionDate)
		set[d.AddDate(0, 0, -30)] = true
		set[d.AddDate(0, 0, -1)] = true
		set[d] = true
		set[d.AddDate(0, 0, 1)] = true
	}
	dates := make([]time.Time, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (c *Checker) checkTicker(ctx context.Context, ticker string, dates []time.Time) (TickerResult, error) {
	result := TickerResult{Ticker: ticker}

	for i, day := range dates {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if i > 0 && c.rateLimit > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(c.rateLimit):
			}
		}

		stored, err := c.store.ScanAdjusted(ctx, store.Filter{
			Ticker: ticker,
			Start:  day,
			End:    day,
		})
		if err != nil {
			return result, fmt.Errorf("scan adjusted for %s: %w", ticker, err)
		}
		if len(stored) == 0 {
			result.Errors++
			result.Details = append(result.Details, CheckDetail{
				Date: day, Status: StatusError, Message: "no stored adjusted bar",
			})
			continue
		}

		ref, err := c.api.DailyAggregate(ctx, ticker, day, true)
		if err != nil {
			return result, fmt.Errorf("reference aggregate for %s: %w", ticker, err)
		}
		if ref == nil {
			result.Errors++
			result.Details = append(result.Details, CheckDetail{
				Date: day, Status: StatusError, Message: "no reference bar",
			})
			continue
		}

		diff := diffPercent(stored[0].Close, ref.Close)
		result.DatesChecked++
		detail := CheckDetail{
			Date:        day,
			StoredClose: stored[0].Close,
			APIClose:    ref.Close,
			DiffPercent: diff,
		}
		if math.Abs(diff) <= PriceTolerancePercent {
			result.Passed++
			detail.Status = StatusPass
		} else {
			result.Failed++
			detail.Status = StatusFail
		}
		result.Details = append(result.Details, detail)
	}

	return result, nil
}

// diffPercent is ((stored - reference) / reference) * 100.
func diffPercent(stored, reference float64) float64 {
	if reference == 0 {
		if stored == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (stored - reference) / reference * 100
}

func (c *Checker) logSummary(report *Report) {
	c.logger.Info("spot check summary",
		"tickers_checked", report.TickersChecked,
		"total_checks", report.TotalChecks,
		"passed", report.Passed,
		"failed", report.Failed,
		"errors", report.Errors,
	)
	if report.Failed == 0 {
		return
	}
	for _, tr := range report.TickerResults {
		for _, d := range tr.Details {
			if d.Status != StatusFail {
				continue
			}
			c.logger.Error("failed check",
				"ticker", tr.Ticker,
				"date", d.Date.Format("2006-01-02"),
				"stored_close", d.StoredClose,
				"api_close", d.APIClose,
				"diff_percent", fmt.Sprintf("%.4f", d.DiffPercent),
			)
		}
	}
}
