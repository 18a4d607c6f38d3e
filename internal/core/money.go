// Package core provides amount parsing and handling utilities.
//
// Amounts are parsed and summed as decimals and only converted to float64 at
// the edges (JSON storage and chart output).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied amount string into a positive decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for empty, non-numeric, zero or negative values.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// NormalizeAmountInput coerces an in-progress amount entry: anything that is
// not a positive number becomes the literal "0", otherwise the input is kept
// as typed.
func NormalizeAmountInput(s string) string {
	if _, err := ParseAmount(s); err != nil {
		return "0"
	}
	return s
}

// sum adds amounts as decimals to avoid float drift across many records.
func sum(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Amount))
	}
	return total
}
