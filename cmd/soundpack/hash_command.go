package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundpack/internal/assetindex"
	"soundpack/internal/services"
)

func newHashCommand(ctx *commandContext) *cobra.Command {
	var short bool
	var text bool
	var lookup bool

	cmd := &cobra.Command{
		Use:   "hash <path|->",
		Short: "Print the content hash of a file, stdin, or a string",
		Long: `Print the content hash of a file, stdin, or a string.

With --text the argument itself is hashed as UTF-8 text, matching how
titles and other strings are hashed inside records. With --lookup the
asset index is searched for packages already holding the same content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := ctx.hasher()
			if err != nil {
				return err
			}
			target := args[0]
			// the index stores full hashes only
			truncate := short && !lookup
			var sum string
			switch {
			case text:
				sum = h.HashText(target, truncate)
			case target == "-":
				sum, err = h.HashReader(cmd.InOrStdin(), truncate)
			default:
				info, statErr := os.Stat(target)
				if statErr != nil {
					return services.WrapIO("hash", "stat", target, statErr)
				}
				if info.IsDir() {
					return services.Wrap(services.ErrValidation, "hash", "stat", target+" is a directory", nil)
				}
				sum, err = h.HashFile(target, truncate)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !lookup {
				fmt.Fprintf(out, "%s  %s\n", sum, target)
				return nil
			}
			display := sum
			if short {
				display = h.Short(sum)
			}
			fmt.Fprintf(out, "%s  %s\n", display, target)
			return ctx.withIndex(func(store *assetindex.Store) error {
				locations, err := store.Lookup(runContext(cmd, "hash lookup"), sum)
				if err != nil {
					return err
				}
				if len(locations) == 0 {
					fmt.Fprintln(out, "Not in any indexed package")
					return nil
				}
				for _, loc := range locations {
					fmt.Fprintf(out, "  %s/%s (%s)\n", loc.PackageID, loc.File, humanize.Bytes(uint64(loc.Bytes)))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print the truncated hash")
	cmd.Flags().BoolVar(&text, "text", false, "Hash the argument as text instead of reading a file")
	cmd.Flags().BoolVar(&lookup, "lookup", false, "List indexed packages that already contain this content")
	return cmd
}
