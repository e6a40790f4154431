package polygon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com", "test-key")

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q", c.baseURL)
		}
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q", c.apiKey)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want 3", c.maxRetries)
		}
		if c.rateLimit != 100*time.Millisecond {
			t.Errorf("rateLimit = %v", c.rateLimit)
		}
	})

	t.Run("with options", func(t *testing.T) {
		c := NewClient("https://api.example.com", "key",
			WithTimeout(15*time.Second),
			WithRetries(10, 500*time.Millisecond),
			WithRateLimit(time.Second),
		)
		if c.httpClient.Timeout != 15*time.Second {
			t.Errorf("Timeout = %v", c.httpClient.Timeout)
		}
		if c.maxRetries != 10 || c.retryBackoff != 500*time.Millisecond {
			t.Errorf("retries = %d/%v", c.maxRetries, c.retryBackoff)
		}
		if c.RateLimit() != time.Second {
			t.Errorf("RateLimit() = %v", c.RateLimit())
		}
	})
}

func TestDoRequest_AuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret-key")
	if _, err := c.doRequest(context.Background(), http.MethodGet, "/v3/reference/splits", nil); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestDoWithRetry_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"OK"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithRetries(3, time.Millisecond))
	body, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
	if err != nil {
		t.Fatalf("doWithRetry: %v", err)
	}
	if string(body) != `{"status":"OK"}` {
		t.Errorf("body = %s", body)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDoWithRetry_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithRetries(3, time.Millisecond))
	_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 APIError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestDoWithRetry_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithRetries(2, time.Millisecond))
	if _, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil); err != nil {
		t.Fatalf("doWithRetry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestListSplits_Pagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/reference/splits" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{
				"status": "OK",
				"results": [
					{"id": "s1", "ticker": "AAPL", "execution_date": "2020-08-31", "split_from": 1, "split_to": 4},
					{"id": "s2", "ticker": "TSLA", "execution_date": "2020-08-31", "split_from": 1, "split_to": 5}
				],
				"next_url": "` + server.URL + `/v3/reference/splits?cursor=page2"
			}`))
			return
		}
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"id": "s3", "ticker": "NVDA", "execution_date": "2021-07-20", "split_from": 1, "split_to": 4}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "key")
	splits, err := c.ListSplits(context.Background(), model.Date(2020, 1, 1), model.Date(2022, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(splits) != 3 {
		t.Fatalf("len(splits) = %d, want 3", len(splits))
	}
	if splits[0].ID != "s1" || splits[0].SplitFactor != 4.0 {
		t.Errorf("splits[0] = %+v", splits[0])
	}
	if !splits[0].ExecutionDate.Equal(model.Date(2020, 8, 31)) {
		t.Errorf("ExecutionDate = %v", splits[0].ExecutionDate)
	}
	if splits[2].Ticker != "NVDA" {
		t.Errorf("splits[2] = %+v", splits[2])
	}
}

func TestListSplits_SkipsIncompleteRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"id": "", "ticker": "AAPL", "execution_date": "2020-08-31", "split_from": 1, "split_to": 4},
				{"id": "s2", "ticker": "", "execution_date": "2020-08-31", "split_from": 1, "split_to": 4},
				{"id": "s3", "ticker": "GOOD", "execution_date": "not-a-date", "split_from": 1, "split_to": 4},
				{"id": "s4", "ticker": "GE", "execution_date": "2021-08-02", "split_from": 8, "split_to": 1}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "key")
	splits, err := c.ListSplits(context.Background(), model.Date(2020, 1, 1), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(splits) != 1 {
		t.Fatalf("len(splits) = %d, want 1", len(splits))
	}
	if splits[0].Ticker != "GE" || splits[0].SplitFactor != 0.125 {
		t.Errorf("splits[0] = %+v", splits[0])
	}
}

func TestListTickers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("market") != "stocks" || q.Get("active") != "true" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"ticker": "AAPL", "name": "Apple Inc.", "market": "stocks",
					"locale": "us", "primary_exchange": "XNAS", "type": "CS",
					"active": true, "currency_name": "usd", "cik": "0000320193",
					"last_updated_utc": "2024-01-02T00:00:00Z"
				},
				{"ticker": "", "name": "bogus"}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "key")
	tickers, err := c.ListTickers(context.Background(), "stocks", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 1 {
		t.Fatalf("len(tickers) = %d, want 1", len(tickers))
	}
	got := tickers[0]
	if got.Ticker != "AAPL" || got.Type != "CS" || !got.Active {
		t.Errorf("tickers[0] = %+v", got)
	}
	if got.LastUpdated.IsZero() {
		t.Error("LastUpdated should be parsed")
	}
	if !got.Delisted.IsZero() {
		t.Error("Delisted should be zero when absent")
	}
}

func TestDailyAggregate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/aggs/ticker/AAPL/range/1/day/2023-10-20/2023-10-20":
			if r.URL.Query().Get("adjusted") != "true" {
				t.Errorf("adjusted = %q", r.URL.Query().Get("adjusted"))
			}
			w.Write([]byte(`{
				"ticker": "AAPL",
				"resultsCount": 1,
				"status": "OK",
				"results": [{"o": 175.0, "h": 177.5, "l": 174.0, "c": 176.2, "v": 50000000, "n": 400000, "t": 1697774400000}]
			}`))
		default:
			// No bar for the date
			w.Write([]byte(`{"resultsCount": 0, "status": "OK", "results": []}`))
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "key")

	bar, err := c.DailyAggregate(context.Background(), "AAPL", model.Date(2023, 10, 20), true)
	if err != nil {
		t.Fatal(err)
	}
	if bar == nil {
		t.Fatal("bar = nil, want data")
	}
	if bar.Close != 176.2 || bar.Volume != 50000000 || bar.Transactions != 400000 {
		t.Errorf("bar = %+v", bar)
	}
	if !bar.WindowStart.Equal(model.Date(2023, 10, 20)) {
		t.Errorf("WindowStart = %v", bar.WindowStart)
	}

	missing, err := c.DailyAggregate(context.Background(), "AAPL", model.Date(2023, 12, 25), true)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("holiday bar = %+v, want nil", missing)
	}
}

func TestNextCursor(t *testing.T) {
	tests := []struct {
		nextURL string
		want    string
	}{
		{"", ""},
		{"https://api.polygon.io/v3/reference/splits?cursor=abc123", "abc123"},
		{"https://api.polygon.io/v3/reference/splits", ""},
	}
	for _, tt := range tests {
		if got := nextCursor(tt.nextURL); got != tt.want {
			t.Errorf("nextCursor(%q) = %q, want %q", tt.nextURL, got, tt.want)
		}
	}
}
