// Package store implements the columnar table boundary on PostgreSQL.
//
// Semantics per logical table:
//   - Append: bulk COPY of new rows
//   - Overwrite: TRUNCATE + COPY inside one transaction, so readers never
//     observe a half-replaced table
//   - Scan: ticker and date-range filters pushed into WHERE clauses
//   - Stats: row count plus min/max of the table's date column
//
// A Memory implementation with identical semantics backs the engine tests.
// Storage errors are never retried; they abort the run.
package store
