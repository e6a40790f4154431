package adjust

import (
	"sort"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// Adjust converts raw price bars into split-adjusted bars.
//
// For each bar, every split of the same ticker executed after the bar's date
// contributes its factor; the bar's prices are divided by the product.
// Prices recorded before a forward split are scaled down so they are
// comparable to post-split prices. A bar dated on the execution day itself is
// already post-split in the source data and is left untouched. Volume and
// transaction counts pass through untouched.
//
// With no splits the input is returned unchanged. Two splits sharing an
// execution date both apply; their factors compound.
func Adjust(raw []model.PriceBar, splits []model.Split) []model.PriceBar {
	if len(splits) == 0 {
		return raw
	}

	factors := buildFactorIndex(splits)

	out := make([]model.PriceBar, len(raw))
	for i, bar := range raw {
		f := factors.cumulative(bar.Ticker, model.Day(bar.WindowStart))
		out[i] = bar
		if f != 1.0 {
			out[i].Open = bar.Open / f
			out[i].Close = bar.Close / f
			out[i].High = bar.High / f
			out[i].Low = bar.Low / f
		}
	}
	return out
}

// factorIndex answers cumulative-factor queries in O(log n) per bar.
// For each ticker the splits are sorted by execution date and a suffix
// product is precomputed: suffix[i] is the product of factors for splits
// i..end, i.e. the cumulative factor for any price date < dates[i].
// The product is accumulated in float64 so rounding does not compound
// across long split histories.
type factorIndex struct {
	byTicker map[string]tickerFactors
}

type tickerFactors struct {
	dates  []time.Time // Execution dates, ascending
	suffix []float64   // suffix[i] = product of factors from i to end
}

func buildFactorIndex(splits []model.Split) factorIndex {
	grouped := make(map[string][]model.Split)
	for _, s := range splits {
		grouped[s.Ticker] = append(grouped[s.Ticker], s)
	}

	idx := factorIndex{byTicker: make(map[string]tickerFactors, len(grouped))}
	for ticker, ss := range grouped {
		sort.Slice(ss, func(i, j int) bool {
			return ss[i].ExecutionDate.Before(ss[j].ExecutionDate)
		})

		tf := tickerFactors{
			dates:  make([]time.Time, len(ss)),
			suffix: make([]float64, len(ss)),
		}
		prod := 1.0
		for i := len(ss) - 1; i >= 0; i-- {
			prod *= ss[i].SplitFactor
			tf.dates[i] = model.Day(ss[i].ExecutionDate)
			tf.suffix[i] = prod
		}
		idx.byTicker[ticker] = tf
	}
	return idx
}

// cumulative returns the product of factors for all splits of ticker
// executed strictly after priceDate, or 1.0 when none apply.
func (idx factorIndex) cumulative(ticker string, priceDate time.Time) float64 {
	tf, ok := idx.byTicker[ticker]
	if !ok {
		return 1.0
	}
	// First split executed after the price date.
	i := sort.Search(len(tf.dates), func(i int) bool {
		return tf.dates[i].After(priceDate)
	})
	if i == len(tf.dates) {
		return 1.0
	}
	return tf.suffix[i]
}

// CumulativeFactor exposes the per-bar factor for one ticker/date, mainly
// for diagnostics and verification tooling.
func CumulativeFactor(splits []model.Split, ticker string, priceDate time.Time) float64 {
	return buildFactorIndex(splits).cumulative(ticker, model.Day(priceDate))
}
