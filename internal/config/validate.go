package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	switch c.Source.Backend {
	case "local":
		if c.Source.LocalPath == "" {
			return errors.New("source.local_path is required for the local backend")
		}
	case "s3":
		if c.Source.S3.AccessKey == "" || c.Source.S3.SecretKey == "" {
			return errors.New("source.s3.access_key and source.s3.secret_key are required for the s3 backend")
		}
		if c.Source.S3.Bucket == "" {
			return errors.New("source.s3.bucket is required")
		}
	default:
		return fmt.Errorf("source.backend must be \"local\" or \"s3\", got %q", c.Source.Backend)
	}

	if c.Verify.SampleTickers < 1 {
		return errors.New("verify.sample_tickers must be >= 1")
	}
	if c.Verify.LookbackDays < 1 {
		return errors.New("verify.lookback_days must be >= 1")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
