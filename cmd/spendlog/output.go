package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// printRecords writes one row per record. The position column is what
// "delete --at" expects for the same category filter.
func printRecords(w io.Writer, records []core.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tCATEGORY\tAMOUNT\tNOTE\tID")
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i, r.Date, r.Category, formatAmount(r.Amount), r.Note, r.ID)
	}
	return tw.Flush()
}

func (a *app) emit(w io.Writer, v any, text func(io.Writer) error) error {
	if a.jsonOutput {
		return printJSON(w, v)
	}
	return text(w)
}
