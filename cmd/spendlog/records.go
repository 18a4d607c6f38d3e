package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"spendlog/internal/core"
	"spendlog/internal/services"
)

func newAddCmd(a *app) *cobra.Command {
	var date, category, amount, note string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a spending",
		Example: `  spendlog add --amount 12.50 --category Food --note lunch
  spendlog add --date 2025-07-01 --amount 3,20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.warnVolatile()
			return a.withJournal(ctx, func(j *services.JournalService) error {
				form := j.NewForm(ctx)
				fields := map[string]string{
					core.FieldDate:   date,
					core.FieldAmount: amount,
					core.FieldNote:   note,
				}
				if category != "" {
					fields[core.FieldCategory] = category
				}
				for field, value := range fields {
					if err := form.Set(field, value); err != nil {
						return err
					}
				}

				record, err := j.AddRecord(ctx, &form)
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), record, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added %s %s %s (%s)\n",
						record.Date, record.Category, formatAmount(record.Amount), record.ID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format(time.DateOnly), "spending date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "category (defaults to the first category)")
	cmd.Flags().StringVar(&amount, "amount", "", "positive amount, dot or comma decimals")
	cmd.Flags().StringVar(&note, "note", "", "free-text note")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded spendings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withJournal(ctx, func(j *services.JournalService) error {
				records := j.ListRecords(ctx, category)
				return a.emit(cmd.OutOrStdout(), records, func(w io.Writer) error {
					return printRecords(w, records)
				})
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "show only this category")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var (
		position int
		category string
	)

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a spending by id or by list position",
		Example: `  spendlog delete 5f0c7a52-3c1e-4a57-9a43-6f2d3b1e9c11
  spendlog delete --at 2 --category Food`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			byPosition := cmd.Flags().Changed("at")
			if byPosition == (len(args) == 1) {
				return errors.New("give either a record id or --at, not both")
			}

			ctx := cmd.Context()
			a.warnVolatile()
			return a.withJournal(ctx, func(j *services.JournalService) error {
				var (
					record core.Record
					err    error
				)
				if byPosition {
					record, err = j.DeleteAt(ctx, position, category)
				} else {
					record, err = j.DeleteRecord(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), record, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted %s %s %s\n",
						record.Date, record.Category, formatAmount(record.Amount))
					return err
				})
			})
		},
	}
	cmd.Flags().IntVar(&position, "at", 0, "position as shown by list")
	cmd.Flags().StringVar(&category, "category", "", "category filter the position refers to")
	return cmd
}
