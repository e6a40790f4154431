// Package occ decodes OCC-style options tickers as they appear in the
// vendor's daily flatfiles.
//
// Format: O:[UNDERLYING][YYMMDD][C/P][STRIKE]
//   - O: fixed market marker
//   - UNDERLYING: variable-length symbol, may embed stray digits
//   - YYMMDD: expiration, century fixed to 2000+YY
//   - C/P: option type
//   - STRIKE: 8 digits, thousandths of a dollar
//
// Because the underlying is variable width, fields are anchored from the
// right edge of the ticker.
package occ
