// Package core holds the normalized spend record schema and the value
// parsing and normalization rules shared by every transport adapter.
package core

import (
	"math"
	"strconv"
	"strings"
)

// Round2 rounds a monetary amount to 2 fraction digits using
// round-half-away-from-zero at the cent boundary.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseCost coerces a raw cost cell into a non-negative USD amount.
// Currency symbols and thousands separators ($ and ,) are stripped before
// numeric coercion. Empty, non-numeric, non-finite, and negative values
// fail coercion; callers drop such rows rather than storing zero.
//
// Examples:
//
//	ParseCost("$1,234.50") -> 1234.5, nil
//	ParseCost("abc")       -> 0, ErrInvalidCost
func ParseCost(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidCost
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidCost
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidCost
	}
	return v, nil
}
