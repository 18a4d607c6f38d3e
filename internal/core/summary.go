package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PieSlice is one category share for pie-style summaries.
type PieSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PieSeries sums amounts per known category, in category order, leaving out
// categories whose sum is not positive.
func PieSeries(records []Record, categories []string) []PieSlice {
	sums := make(map[string]decimal.Decimal, len(categories))
	for _, r := range records {
		sums[r.Category] = sums[r.Category].Add(decimal.NewFromFloat(r.Amount))
	}
	slices := make([]PieSlice, 0, len(categories))
	for _, c := range categories {
		s := sums[c]
		if !s.IsPositive() {
			continue
		}
		slices = append(slices, PieSlice{Name: c, Value: s.InexactFloat64()})
	}
	return slices
}

// Total returns the sum of all record amounts.
func Total(records []Record) float64 {
	return sum(records).InexactFloat64()
}

// FilterByMonth keeps records whose date starts with prefix (e.g. "2025-07").
// An empty prefix keeps everything.
func FilterByMonth(records []Record, prefix string) []Record {
	if prefix == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.HasPrefix(r.Date, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByCategory keeps records with exactly the given category. An empty
// category keeps everything.
func FilterByCategory(records []Record, category string) []Record {
	if category == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// MonthOptions lists the distinct "YYYY-MM" prefixes present in records in
// first-seen order.
func MonthOptions(records []Record) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		m := r.Month()
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
