package polygon

// splitsResponse is the /v3/reference/splits payload.
type splitsResponse struct {
	Results []apiSplit `json:"results"`
	Status  string     `json:"status"`
	NextURL string     `json:"next_url"`
}

type apiSplit struct {
	ID            string  `json:"id"`
	Ticker        string  `json:"ticker"`
	ExecutionDate string  `json:"execution_date"`
	SplitFrom     float64 `json:"split_from"`
	SplitTo       float64 `json:"split_to"`
}

// tickersResponse is the /v3/reference/tickers payload.
type tickersResponse struct {
	Results []apiTicker `json:"results"`
	Status  string      `json:"status"`
	NextURL string      `json:"next_url"`
}

type apiTicker struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	Locale          string `json:"locale"`
	PrimaryExchange string `json:"primary_exchange"`
	Type            string `json:"type"`
	Active          bool   `json:"active"`
	CurrencyName    string `json:"currency_name"`
	CIK             string `json:"cik"`
	CompositeFIGI   string `json:"composite_figi"`
	ShareClassFIGI  string `json:"share_class_figi"`
	LastUpdatedUTC  string `json:"last_updated_utc"`
	DelistedUTC     string `json:"delisted_utc"`
}

// aggsResponse is the /v2/aggs payload.
type aggsResponse struct {
	Ticker       string   `json:"ticker"`
	ResultsCount int      `json:"resultsCount"`
	Results      []apiAgg `json:"results"`
	Status       string   `json:"status"`
}

type apiAgg struct {
	Open         float64 `json:"o"`
	High         float64 `json:"h"`
	Low          float64 `json:"l"`
	Close        float64 `json:"c"`
	Volume       float64 `json:"v"`
	Transactions uint32  `json:"n"`
	Timestamp    int64   `json:"t"` // Bar start, milliseconds since epoch
}
