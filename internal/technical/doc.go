// Package technical derives moving-average and volatility indicators
// from split-adjusted daily bars, one series per ticker.
package technical
