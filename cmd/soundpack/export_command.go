package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundpack/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var compression export.Compression
	var showContents bool

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a package to a compressed tar archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("compression") {
				if compression, err = export.ParseCompression(cfg.Export.Compression); err != nil {
					return err
				}
			}
			agg, err := ctx.catalog(cmd)
			if err != nil {
				return err
			}
			runCtx := runContext(cmd, "export")
			entry, err := agg.Find(runCtx, args[0])
			if err != nil {
				return err
			}

			exporter := export.New(cfg.Paths.ExportsDir, cfg.Packaging.ManifestName, cfg.Hashing.ShortLength, logger)
			result, err := exporter.Export(runCtx, entry.Dir, compression)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %s to %s (%d files, %s)\n", entry.ID, result.Path, result.Files, humanize.Bytes(uint64(result.Bytes)))
			if !showContents {
				return nil
			}
			entries, err := export.List(result.Path)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Name, humanize.Bytes(uint64(e.Size))})
			}
			fmt.Fprintln(out, renderTable([]string{"File", "Size"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().Var(&compression, "compression", "Archive compression: zstd, lz4 or none (defaults to export.compression)")
	cmd.Flags().BoolVar(&showContents, "contents", false, "List the archive contents after writing")
	return cmd
}
