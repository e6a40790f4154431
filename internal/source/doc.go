// Package source reads daily OHLCV flatfiles from their origin.
//
// Two origins are supported behind one interface:
//   - Local: a directory tree of gzipped CSVs
//   - S3: the vendor's S3-compatible flatfile service
//
// Both lay files out as {root}/{YYYY}/{MM}/{YYYY-MM-DD}.csv.gz and share
// the gzip+CSV row decoder, which skips and counts malformed rows instead
// of failing the file.
package source
