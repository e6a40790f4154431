package polygon

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// ListTickers fetches reference metadata for every listed symbol in a
// market, paginating through the bulk endpoint.
func (c *Client) ListTickers(ctx context.Context, market string, active bool) ([]model.TickerInfo, error) {
	query := url.Values{}
	query.Set("market", market)
	if active {
		query.Set("active", "true")
	}
	query.Set("limit", "1000")

	var tickers []model.TickerInfo
	for {
		var resp tickersResponse
		if err := c.get(ctx, "/v3/reference/tickers", query, &resp); err != nil {
			return nil, fmt.Errorf("list tickers: %w", err)
		}

		for _, t := range resp.Results {
			if t.Ticker == "" {
				continue
			}
			tickers = append(tickers, model.TickerInfo{
				Ticker:          t.Ticker,
				Name:            t.Name,
				Market:          t.Market,
				Locale:          t.Locale,
				PrimaryExchange: t.PrimaryExchange,
				Type:            t.Type,
				Active:          t.Active,
				CurrencyName:    t.CurrencyName,
				CIK:             t.CIK,
				CompositeFIGI:   t.CompositeFIGI,
				ShareClassFIGI:  t.ShareClassFIGI,
				LastUpdated:     parseUTC(t.LastUpdatedUTC),
				Delisted:        parseUTC(t.DelistedUTC),
			})
		}

		cursor := nextCursor(resp.NextURL)
		if cursor == "" {
			break
		}
		query.Set("cursor", cursor)
	}

	return tickers, nil
}

// parseUTC parses an RFC 3339 timestamp, returning zero when the field is
// absent or malformed.
func parseUTC(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
