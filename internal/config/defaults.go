package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPIBaseURL    = "https://api.polygon.io"
	DefaultAPITimeout    = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultRateLimit     = 100 * time.Millisecond
	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 10
	DefaultMinConns      = 2
	DefaultSourceBackend = "local"
	DefaultLocalPath     = "./flatfiles"
	DefaultS3Endpoint    = "https://files.polygon.io"
	DefaultS3Region      = "us-east-1"
	DefaultS3Bucket      = "flatfiles"
	DefaultStocksPrefix  = "us_stocks_sip/day_aggs_v1"
	DefaultOptionsPrefix = "us_options_opra/day_aggs_v1"
	DefaultSampleTickers = 5
	DefaultLookbackDays  = 365
)

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RateLimit == 0 {
		c.API.RateLimit = DefaultRateLimit
	}

	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.Source.Backend == "" {
		c.Source.Backend = DefaultSourceBackend
	}
	if c.Source.LocalPath == "" {
		c.Source.LocalPath = DefaultLocalPath
	}
	if c.Source.S3.Endpoint == "" {
		c.Source.S3.Endpoint = DefaultS3Endpoint
	}
	if c.Source.S3.Region == "" {
		c.Source.S3.Region = DefaultS3Region
	}
	if c.Source.S3.Bucket == "" {
		c.Source.S3.Bucket = DefaultS3Bucket
	}
	if c.Source.S3.StocksPrefix == "" {
		c.Source.S3.StocksPrefix = DefaultStocksPrefix
	}
	if c.Source.S3.OptionsPrefix == "" {
		c.Source.S3.OptionsPrefix = DefaultOptionsPrefix
	}

	if c.Verify.SampleTickers == 0 {
		c.Verify.SampleTickers = DefaultSampleTickers
	}
	if c.Verify.LookbackDays == 0 {
		c.Verify.LookbackDays = DefaultLookbackDays
	}
}
