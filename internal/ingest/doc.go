// Package ingest loads daily flatfiles into the warehouse and keeps the
// derived tables consistent with the raw data.
//
// An update runs five phases in order:
//  1. Raw backfill: load every source date missing from stocks_raw,
//     oldest first. A bad date is counted and skipped.
//  2. Split refresh: bulk-download all splits since the earliest stored
//     date and replace the splits table wholesale.
//  3. Re-adjustment: rebuild stocks_adjusted from raw and splits.
//  4. Technical indicators: rebuild stocks_technical from adjusted bars.
//  5. Gap repair: find NYSE trading days inside the stored range with no
//     rows and backfill the ones the source can still provide. Any fill
//     re-runs phases 3 and 4.
//
// Phases 2 through 4 abort the run on error; a half-refreshed splits
// table or a partially rebuilt adjusted table would silently corrupt
// every downstream read.
package ingest
