// Package model defines the shared data types for the EOD warehouse.
//
// Storage tables and their row types:
//   - stocks_raw / stocks_adjusted: PriceBar
//   - splits: Split (deduplicated by upstream id)
//   - options: OptionBar (terms decoded from the OCC-style ticker)
//   - tickers: TickerInfo
//   - stocks_technical: TechnicalRow
//
// All date fields are civil dates stored as UTC-midnight time.Time values;
// normalize through Day before comparing or using as map keys.
package model
