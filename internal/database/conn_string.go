package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/eod-data/internal/config"
)

// BuildConnString builds a PostgreSQL connection URL from config.
// Passwords are URL-encoded so special characters survive parsing.
func BuildConnString(cfg config.DBConfig) string {
	auth := cfg.User
	if cfg.Password != "" {
		auth += ":" + url.QueryEscape(cfg.Password)
	}

	params := url.Values{}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	params.Set("sslmode", sslMode)

	return fmt.Sprintf("postgres://%s@%s:%d/%s?%s",
		auth, cfg.Host, cfg.Port, cfg.Name, params.Encode())
}
