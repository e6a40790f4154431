package occ

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// Marker is the options-market prefix carried by every options ticker.
const Marker = "O:"

// Field widths, anchored from the right of the ticker body.
const (
	strikeDigits = 8
	dateDigits   = 6
	suffixLen    = dateDigits + 1 + strikeDigits // date + type marker + strike

	minTickerLen = len(Marker) + 1 + suffixLen // at least one underlying char
)

// ErrMalformed is returned (wrapped) for any ticker that cannot be decoded.
// Callers match it with errors.Is and treat the row as a counted parse
// failure, never as a partial result.
var ErrMalformed = errors.New("malformed options ticker")

// Contract is the decoded form of an options ticker.
type Contract struct {
	Underlying string           // Underlying symbol, A-Z letters only
	Expiration time.Time        // Contract expiration date
	Type       model.OptionType // Call or Put
	Strike     float64          // Strike price in dollars
}

// Decode parses an options ticker of the form O:[UNDERLYING][YYMMDD][C/P][STRIKE].
//
// The underlying symbol has variable length and occasionally embeds stray
// digits (share-class markers and the like), so decoding anchors on the
// right edge where the fields are fixed width:
//
//	last 8 chars          strike price, thousandths of a dollar
//	9th from the right    option type, exactly C or P
//	6 chars before that   expiration as YYMMDD, century fixed to 2000+YY
//	everything earlier    underlying region; non-letters are discarded
func Decode(ticker string) (Contract, error) {
	body, err := stripMarker(ticker)
	if err != nil {
		return Contract{}, err
	}

	strikeStr := body[len(body)-strikeDigits:]
	typeChar := body[len(body)-strikeDigits-1]
	dateStr := body[len(body)-suffixLen : len(body)-strikeDigits-1]
	underlying := letters(body[:len(body)-suffixLen])

	if underlying == "" {
		return Contract{}, fmt.Errorf("%w: no letters in underlying region of %q", ErrMalformed, ticker)
	}

	var typ model.OptionType
	switch typeChar {
	case 'C':
		typ = model.Call
	case 'P':
		typ = model.Put
	default:
		return Contract{}, fmt.Errorf("%w: option type %q in %q", ErrMalformed, string(typeChar), ticker)
	}

	expiration, err := parseExpiration(dateStr)
	if err != nil {
		return Contract{}, fmt.Errorf("%w: %v in %q", ErrMalformed, err, ticker)
	}

	strike, err := parseStrike(strikeStr)
	if err != nil {
		return Contract{}, fmt.Errorf("%w: %v in %q", ErrMalformed, err, ticker)
	}

	return Contract{
		Underlying: underlying,
		Expiration: expiration,
		Type:       typ,
		Strike:     strike,
	}, nil
}

// Underlying extracts just the underlying symbol from an options ticker,
// using the same right-to-left anchoring as Decode but skipping the date,
// type, and strike validation. Cheaper when only the symbol is needed.
func Underlying(ticker string) (string, error) {
	body, err := stripMarker(ticker)
	if err != nil {
		return "", err
	}

	underlying := letters(body[:len(body)-suffixLen])
	if underlying == "" {
		return "", fmt.Errorf("%w: no letters in underlying region of %q", ErrMalformed, ticker)
	}
	return underlying, nil
}

// StripMarker removes the options-market marker without decoding.
func StripMarker(ticker string) string {
	if len(ticker) >= len(Marker) && ticker[:len(Marker)] == Marker {
		return ticker[len(Marker):]
	}
	return ticker
}

func stripMarker(ticker string) (string, error) {
	if len(ticker) < minTickerLen {
		return "", fmt.Errorf("%w: %q too short", ErrMalformed, ticker)
	}
	if ticker[:len(Marker)] != Marker {
		return "", fmt.Errorf("%w: %q missing %q marker", ErrMalformed, ticker, Marker)
	}
	body := ticker[len(Marker):]
	if len(body) < suffixLen+1 {
		return "", fmt.Errorf("%w: %q body too short", ErrMalformed, ticker)
	}
	return body, nil
}

// letters keeps only uppercase A-Z, folding lowercase up and dropping
// digits and punctuation.
func letters(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c)
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		}
	}
	return string(out)
}

func parseExpiration(s string) (time.Time, error) {
	if len(s) != dateDigits || !allDigits(s) {
		return time.Time{}, fmt.Errorf("expiration %q not %d digits", s, dateDigits)
	}

	yy, _ := strconv.Atoi(s[0:2])
	mm, _ := strconv.Atoi(s[2:4])
	dd, _ := strconv.Atoi(s[4:6])

	d := model.Date(2000+yy, time.Month(mm), dd)
	// time.Date normalizes out-of-range components (month 13, day 32);
	// reject anything that did not survive the round trip.
	if d.Year() != 2000+yy || int(d.Month()) != mm || d.Day() != dd {
		return time.Time{}, fmt.Errorf("expiration %q is not a calendar date", s)
	}
	return d, nil
}

func parseStrike(s string) (float64, error) {
	if len(s) != strikeDigits || !allDigits(s) {
		return 0, fmt.Errorf("strike %q not %d digits", s, strikeDigits)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("strike %q: %v", s, err)
	}
	return float64(n) / 1000.0, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
