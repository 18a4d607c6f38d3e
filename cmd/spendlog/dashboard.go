package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"spendlog/internal/core"
	"spendlog/internal/services"
)

func newDashboardCmd(a *app) *cobra.Command {
	var period, month string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize spending by period and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := core.ParsePeriod(period)
			if err != nil {
				return err
			}
			if month != "" {
				if _, err := time.Parse("2006-01", month); err != nil {
					return fmt.Errorf("invalid month %q: want YYYY-MM", month)
				}
			}

			ctx := cmd.Context()
			return a.withAccessor(ctx, func(accessor *services.Accessor) error {
				dashboard := services.NewDashboardService(ctx, services.NewSnapshot(accessor), nil)
				view := dashboard.View(ctx, services.DashboardQuery{Period: p, Month: month})
				return a.emit(cmd.OutOrStdout(), view, func(w io.Writer) error {
					return printDashboard(w, view)
				})
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", "monthly", "daily, weekly or monthly")
	cmd.Flags().StringVar(&month, "month", "", "restrict to one month (YYYY-MM)")
	return cmd
}

func printDashboard(w io.Writer, view services.DashboardView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "Total\t%s\t\n", formatAmount(view.TotalAll))
	if view.Month != "" {
		fmt.Fprintf(tw, "Total %s\t%s\t\n", view.Month, formatAmount(view.TotalSelected))
	}
	fmt.Fprintf(tw, "Records\t%d\t\n\n", view.RecordCount)

	fmt.Fprint(tw, view.Period.String())
	for _, c := range view.Categories {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw, "\t")
	for _, point := range view.Line {
		fmt.Fprint(tw, point.Name)
		for _, c := range view.Categories {
			fmt.Fprintf(tw, "\t%s", formatAmount(point.Value(c)))
		}
		fmt.Fprintln(tw, "\t")
	}

	if len(view.Pie) > 0 {
		fmt.Fprintln(tw)
		for _, slice := range view.Pie {
			fmt.Fprintf(tw, "%s\t%s\t\n", slice.Name, formatAmount(slice.Value))
		}
	}
	return tw.Flush()
}
