package technical

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"

	"github.com/rickgao/eod-data/internal/model"
)

// Indicator windows, in trading days.
const (
	smaShort  = 20
	smaMid    = 50
	smaLong   = 200
	atrPeriod = 14
)

// Compute derives per-ticker indicators from adjusted daily bars:
// SMA 20/50/200 of close, SMA 20 of volume, and 14-day ATR. Bars may
// arrive in any order; output is sorted by ticker then date. Positions
// without enough history for a window carry NaN.
func Compute(bars []model.PriceBar) []model.TechnicalRow {
	byTicker := make(map[string][]model.PriceBar)
	for _, b := range bars {
		byTicker[b.Ticker] = append(byTicker[b.Ticker], b)
	}

	tickers := make([]string, 0, len(byTicker))
	for t := range byTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var rows []model.TechnicalRow
	for _, ticker := range tickers {
		series := byTicker[ticker]
		sort.Slice(series, func(i, j int) bool {
			return series[i].WindowStart.Before(series[j].WindowStart)
		})
		rows = append(rows, computeTicker(ticker, series)...)
	}
	return rows
}

func computeTicker(ticker string, series []model.PriceBar) []model.TechnicalRow {
	n := len(series)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range series {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = float64(b.Volume)
	}

	sma20 := smaOrNaN(closes, smaShort)
	sma50 := smaOrNaN(closes, smaMid)
	sma200 := smaOrNaN(closes, smaLong)
	volSMA20 := smaOrNaN(volumes, smaShort)
	atr14 := atrOrNaN(highs, lows, closes, atrPeriod)

	rows := make([]model.TechnicalRow, n)
	for i, b := range series {
		rows[i] = model.TechnicalRow{
			Ticker:      ticker,
			WindowStart: b.WindowStart,
			SMA20:       sma20[i],
			SMA50:       sma50[i],
			SMA200:      sma200[i],
			VolumeSMA20: volSMA20[i],
			ATR14:       atr14[i],
		}
	}
	return rows
}

// smaOrNaN computes a simple moving average with NaN in the warmup
// positions. talib zero-fills its lookback window, which is
// indistinguishable from a real zero average.
func smaOrNaN(values []float64, period int) []float64 {
	if len(values) < period {
		return nanSlice(len(values))
	}
	out := talib.Sma(values, period)
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// atrOrNaN computes ATR with NaN warmup. ATR's lookback is one longer
// than the period because the true range needs the prior close.
func atrOrNaN(highs, lows, closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nanSlice(len(closes))
	}
	out := talib.Atr(highs, lows, closes, period)
	for i := 0; i < period; i++ {
		out[i] = math.NaN()
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
