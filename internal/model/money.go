package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice converts a storefront decimal string (major units, e.g. "12.50")
// into a decimal amount. Unparseable, empty, NaN and infinite inputs yield zero
// so a single malformed product never aborts a catalog sync.
// Examples: "12.50" → 12.5, "100" → 100, "" → 0, "abc" → 0
func ParsePrice(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// LineAmount prices a single line: unit price × quantity.
func LineAmount(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
