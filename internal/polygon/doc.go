// Package polygon provides a client for the Polygon REST API.
//
// The client covers the three reference surfaces the loader needs:
// bulk split listings, bulk ticker metadata, and single-day aggregates
// used for spot checks. All requests retry on 5xx and 429 with
// exponential backoff and jitter; bulk endpoints follow next_url
// cursor pagination to exhaustion.
package polygon
