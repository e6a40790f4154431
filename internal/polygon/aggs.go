package polygon

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// DailyAggregate fetches the daily OHLCV bar for one ticker and date.
// Returns (nil, nil) when the market has no bar for that date, which is
// normal for holidays and thinly traded symbols.
func (c *Client) DailyAggregate(ctx context.Context, ticker string, day time.Time, adjusted bool) (*model.PriceBar, error) {
	dateStr := day.Format("2006-01-02")
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s", ticker, dateStr, dateStr)

	query := url.Values{}
	query.Set("adjusted", fmt.Sprintf("%t", adjusted))
	query.Set("limit", "1")

	var resp aggsResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("daily aggregate %s %s: %w", ticker, dateStr, err)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}

	agg := resp.Results[0]
	return &model.PriceBar{
		Ticker:       ticker,
		WindowStart:  model.Day(day),
		Volume:       uint64(agg.Volume),
		Open:         agg.Open,
		Close:        agg.Close,
		High:         agg.High,
		Low:          agg.Low,
		Transactions: agg.Transactions,
	}, nil
}
