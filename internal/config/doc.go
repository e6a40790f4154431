// Package config handles YAML configuration loading with environment
// variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. Defaults are applied before validation, so a minimal file
// only needs the database connection and, for the s3 backend, credentials.
package config
