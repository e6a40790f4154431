package config

import "time"

// Config is the root configuration for the warehouse.
type Config struct {
	Database DBConfig     `yaml:"database"`
	API      APIConfig    `yaml:"api"`
	Source   SourceConfig `yaml:"source"`
	Verify   VerifyConfig `yaml:"verify"`
}

// DBConfig holds the PostgreSQL connection that backs the table store.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// APIConfig holds the authoritative market-data API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	// RateLimit is the pause between consecutive per-ticker calls.
	RateLimit time.Duration `yaml:"rate_limit"`
}

// SourceConfig selects and configures the flatfile origin.
type SourceConfig struct {
	// Backend is "local" or "s3".
	Backend string `yaml:"backend"`
	// LocalPath is the flatfile root for the local backend; per-date files
	// live at {LocalPath}/{data_type}/{YYYY}/{MM}/{YYYY-MM-DD}.csv.gz.
	LocalPath string   `yaml:"local_path"`
	S3        S3Config `yaml:"s3"`
}

// S3Config holds the object-store origin. The endpoint override points at
// the vendor's S3-compatible flatfile service.
type S3Config struct {
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	StocksPrefix  string `yaml:"stocks_prefix"`
	OptionsPrefix string `yaml:"options_prefix"`
}

// VerifyConfig holds spot-check settings.
type VerifyConfig struct {
	// SampleTickers is how many split-bearing tickers to sample per run.
	SampleTickers int `yaml:"sample_tickers"`
	// LookbackDays bounds how far back to look for recent splits.
	LookbackDays int `yaml:"lookback_days"`
}
