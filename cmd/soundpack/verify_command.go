package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soundpack/internal/catalog"
	"soundpack/internal/pack"
	"soundpack/internal/services"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "verify [id]",
		Short: "Re-hash packaged samples and compare them with the manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("a package id is required (or pass --all)")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			h, err := ctx.hasher()
			if err != nil {
				return err
			}
			agg, err := ctx.catalog(cmd)
			if err != nil {
				return err
			}
			runCtx := runContext(cmd, "verify")

			var entries []catalog.Entry
			if len(args) == 1 {
				entry, err := agg.Find(runCtx, args[0])
				if err != nil {
					return err
				}
				entries = []catalog.Entry{entry}
			} else {
				entries, err = agg.Scan(runCtx)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			var rows [][]string
			for _, entry := range entries {
				problems, err := pack.Verify(runCtx, h, entry.Dir, cfg.Packaging.ManifestName)
				if err != nil {
					return err
				}
				if len(problems) == 0 {
					fmt.Fprintf(out, "%s: ok (%d samples)\n", entry.ID, entry.NumSamples)
					continue
				}
				for _, p := range problems {
					rows = append(rows, []string{entry.ID, p.File, p.Kind, p.Detail})
				}
			}
			if len(rows) == 0 {
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Package", "File", "Problem", "Detail"}, rows, nil))
			return services.Wrap(services.ErrValidation, "verify", "compare", fmt.Sprintf("%d problem(s) found", len(rows)), nil)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Verify every package in the catalog")
	return cmd
}
