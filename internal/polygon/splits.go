package polygon

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// ListSplits fetches every split whose execution date falls within
// [start, end], for all tickers, paginating through the bulk endpoint.
// A zero end means today.
func (c *Client) ListSplits(ctx context.Context, start, end time.Time) ([]model.Split, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}

	query := url.Values{}
	query.Set("execution_date.gte", start.Format("2006-01-02"))
	query.Set("execution_date.lte", end.Format("2006-01-02"))
	query.Set("order", "asc")
	query.Set("limit", "1000")

	var splits []model.Split
	for {
		var resp splitsResponse
		if err := c.get(ctx, "/v3/reference/splits", query, &resp); err != nil {
			return nil, fmt.Errorf("list splits: %w", err)
		}

		for _, s := range resp.Results {
			if s.ID == "" || s.Ticker == "" {
				continue
			}
			execDate, err := time.ParseInLocation("2006-01-02", s.ExecutionDate, time.UTC)
			if err != nil {
				c.logger.Warn("split with unparseable execution date skipped",
					"id", s.ID,
					"ticker", s.Ticker,
					"execution_date", s.ExecutionDate,
				)
				continue
			}
			splits = append(splits, model.Split{
				ID:            s.ID,
				Ticker:        s.Ticker,
				ExecutionDate: execDate,
				SplitFrom:     s.SplitFrom,
				SplitTo:       s.SplitTo,
				SplitFactor:   s.SplitTo / s.SplitFrom,
			})
		}

		cursor := nextCursor(resp.NextURL)
		if cursor == "" {
			break
		}
		query.Set("cursor", cursor)
	}

	return splits, nil
}
