package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soundpack/internal/catalog"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assembled packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := ctx.catalog(cmd)
			if err != nil {
				return err
			}
			runCtx := runContext(cmd, "list")

			var rows catalog.Catalog
			if rebuild {
				rows, err = agg.Rebuild(runCtx)
				if err != nil {
					return err
				}
			} else {
				entries, err := agg.Scan(runCtx)
				if err != nil {
					return err
				}
				rows = make(catalog.Catalog, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, entry.Summary)
				}
			}

			if jsonOutput {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No packages found")
				return nil
			}
			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				tableRows = append(tableRows, []string{row.ID, row.Title, row.Creator, strconv.Itoa(row.NumSamples)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Creator", "Samples"},
				tableRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the catalog as JSON")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rewrite the catalog file before listing")
	return cmd
}
