// Package database provides connection pool management for the
// PostgreSQL warehouse that backs the price tables.
package database
