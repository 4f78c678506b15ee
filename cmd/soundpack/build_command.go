package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundpack/internal/config"
	"soundpack/internal/pack"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var req pack.Request
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "build <path>",
		Short: "Assemble a sample package from a directory of audio files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			req.SourceDir = source

			logger, err := ctx.loggerFor(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			assembler, closeFn, err := ctx.newAssembler(logger)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := assembler.Assemble(runContext(cmd, "build"), req)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, buildSummary(result))
			}
			printBuildResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Package title (defaults to the directory name)")
	cmd.Flags().StringVar(&req.Creator, "creator", "", "Package creator (defaults to packaging.default_creator)")
	cmd.Flags().StringVar(&req.Description, "description", "", "Package description")
	cmd.Flags().BoolVar(&req.Overwrite, "overwrite", false, "Rewrite an existing package")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "Show the manifest diff without writing anything")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

type buildOutput struct {
	Status         string          `json:"status"`
	ID             string          `json:"id"`
	Dir            string          `json:"dir"`
	Discovered     int             `json:"discovered"`
	Kept           int             `json:"kept"`
	Dropped        []droppedOutput `json:"dropped"`
	Copied         int             `json:"copied"`
	AlreadyPresent int             `json:"alreadyPresent"`
	Hash           string          `json:"hash,omitempty"`
	Diff           string          `json:"diff,omitempty"`
}

type droppedOutput struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

func buildSummary(result pack.Result) buildOutput {
	out := buildOutput{
		Status:         string(result.Status),
		ID:             result.ID,
		Dir:            result.Dir,
		Discovered:     result.Discovered,
		Kept:           result.Kept,
		Dropped:        make([]droppedOutput, 0, len(result.Dropped)),
		Copied:         result.Copied(),
		AlreadyPresent: result.AlreadyPresent(),
		Hash:           result.Package.Metadata.Hash,
		Diff:           result.Diff,
	}
	for _, d := range result.Dropped {
		out.Dropped = append(out.Dropped, droppedOutput{File: d.File, Reason: d.Reason})
	}
	return out
}

func printBuildResult(out io.Writer, result pack.Result) {
	switch result.Status {
	case pack.StatusSkipped:
		fmt.Fprintf(out, "Package %s already exists at %s (use --overwrite to rebuild)\n", result.ID, result.Dir)
		return
	case pack.StatusPlanned:
		fmt.Fprintf(out, "Dry run for package %s (%d of %d files kept)\n", result.ID, result.Kept, result.Discovered)
		if strings.TrimSpace(result.Diff) == "" {
			fmt.Fprintln(out, "Manifest unchanged")
		} else {
			fmt.Fprint(out, result.Diff)
		}
		return
	}

	var total int64
	for _, s := range result.Package.Samples {
		total += s.Bytes
	}
	fmt.Fprintf(out, "Package %s %s at %s\n", result.ID, result.Status, result.Dir)
	fmt.Fprintf(out, "Samples: %d kept of %d discovered (%s)\n", result.Kept, result.Discovered, humanize.Bytes(uint64(total)))
	fmt.Fprintf(out, "Copied: %d, already present: %d\n", result.Copied(), result.AlreadyPresent())
	for _, d := range result.Dropped {
		fmt.Fprintf(out, "  dropped %s: %s\n", d.File, d.Reason)
	}
}
