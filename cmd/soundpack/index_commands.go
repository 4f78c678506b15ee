package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundpack/internal/assetindex"
	"soundpack/internal/services"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Content hash index utilities",
	}
	indexCmd.AddCommand(newIndexRebuildCommand(ctx))
	indexCmd.AddCommand(newIndexDupesCommand(ctx))
	indexCmd.AddCommand(newIndexStatsCommand(ctx))
	return indexCmd
}

func (c *commandContext) withIndex(fn func(*assetindex.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Index.Enabled {
		return services.Wrap(services.ErrConfiguration, "index", "open", "the asset index is disabled (index.enabled = false)", nil)
	}
	store, err := assetindex.Open(cfg.Paths.IndexPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newIndexRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the index from the package manifests on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := ctx.catalog(cmd)
			if err != nil {
				return err
			}
			runCtx := runContext(cmd, "index rebuild")
			entries, err := agg.Scan(runCtx)
			if err != nil {
				return err
			}
			return ctx.withIndex(func(store *assetindex.Store) error {
				n, err := store.Reindex(runCtx, entries)
				if err != nil {
					return err
				}
				stats, err := store.Stats(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d assets from %d packages\n", stats.Assets, n)
				return nil
			})
		},
	}
}

func newIndexDupesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "List samples whose content appears more than once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := ctx.hasher()
			if err != nil {
				return err
			}
			return ctx.withIndex(func(store *assetindex.Store) error {
				dupes, err := store.Duplicates(runContext(cmd, "index dupes"))
				if err != nil {
					return err
				}
				if jsonOutput {
					if dupes == nil {
						dupes = []assetindex.Duplicate{}
					}
					return writeJSON(cmd, dupes)
				}
				out := cmd.OutOrStdout()
				if len(dupes) == 0 {
					fmt.Fprintln(out, "No duplicate samples")
					return nil
				}
				var rows [][]string
				for _, d := range dupes {
					for _, loc := range d.Locations {
						rows = append(rows, []string{h.Short(d.Hash), loc.PackageID, loc.File, humanize.Bytes(uint64(loc.Bytes))})
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Hash", "Package", "File", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print duplicates as JSON")
	return cmd
}

func newIndexStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the index contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withIndex(func(store *assetindex.Store) error {
				stats, err := store.Stats(runContext(cmd, "index stats"))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Packages", "Assets", "Unique hashes"},
					[][]string{{strconv.Itoa(stats.Packages), strconv.Itoa(stats.Assets), strconv.Itoa(stats.UniqueHashes)}},
					[]columnAlignment{alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
