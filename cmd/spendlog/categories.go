package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"spendlog/internal/services"
)

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List spending categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withJournal(ctx, func(j *services.JournalService) error {
				categories := j.Categories(ctx)
				return a.emit(cmd.OutOrStdout(), categories, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, strings.Join(categories, "\n"))
					return err
				})
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.warnVolatile()
			return a.withJournal(ctx, func(j *services.JournalService) error {
				added, err := j.AddCategory(ctx, args[0])
				if err != nil {
					return err
				}
				result := map[string]any{"added": added, "categories": j.Categories(ctx)}
				return a.emit(cmd.OutOrStdout(), result, func(w io.Writer) error {
					msg := "Category already exists"
					if added {
						msg = "Category added"
					}
					_, err := fmt.Fprintln(w, msg)
					return err
				})
			})
		},
	})
	return cmd
}
