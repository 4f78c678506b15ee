package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"soundpack/internal/artifact"
	"soundpack/internal/config"
	"soundpack/internal/resource"
	"soundpack/internal/services"
	"soundpack/internal/textutil"
)

type artifactFlags struct {
	title          string
	creator        string
	creatorWebsite string
	description    string
	paramsPath     string
	thumbnail      string
	output         string
	upload         bool
	inPlace        bool
	jsonOutput     bool
}

func newArtifactCommand(ctx *commandContext) *cobra.Command {
	var flags artifactFlags

	cmd := &cobra.Command{
		Use:   "artifact <path>",
		Short: "Build a derived artifact record for one sample",
		Long: `Build a derived artifact record for one sample.

The sample is copied into the engine resources tree, pinned to the web with
--upload, or referenced where it lies with --in-place. A record keyed by the
hash of the sample and the parameter set is written to the metadata
directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			h, err := ctx.hasher()
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve sample path: %w", err)
			}

			params := artifact.DefaultParameters()
			if strings.TrimSpace(flags.paramsPath) != "" {
				loaded, err := artifact.LoadParameters(flags.paramsPath)
				if err != nil {
					return err
				}
				params = params.Merge(loaded)
			}

			uploader, err := ctx.uploadClient()
			if err != nil {
				return err
			}
			if flags.upload && uploader == nil {
				return services.Wrap(services.ErrConfiguration, "artifact", "upload", "upload is disabled; set upload.enabled in the config", nil)
			}

			// Sample and thumbnail share one resources folder.
			folderTitle := strings.TrimSpace(flags.title)
			if folderTitle == "" {
				folderTitle = textutil.TitleCase(textutil.FileStem(filepath.Base(source)))
			}

			runCtx := runContext(cmd, "artifact")
			factory := resource.NewFactory(h, cfg.Paths.ResourcesDir, cfg.Paths.ArtifactsSubdir, uploader, logger)

			var sample resource.Data
			switch {
			case flags.upload:
				sample, err = factory.Web(runCtx, source, resource.CategorySample)
			case flags.inPlace:
				sample, err = factory.Local(source, resource.CategorySample)
			default:
				sample, err = factory.Package(runCtx, source, resource.CategorySample, folderTitle)
			}
			if err != nil {
				return err
			}
			resources := []resource.Data{sample}
			if thumb := strings.TrimSpace(flags.thumbnail); thumb != "" {
				var data resource.Data
				if flags.inPlace {
					data, err = factory.Local(thumb, resource.CategoryThumbnail)
				} else {
					data, err = factory.Package(runCtx, thumb, resource.CategoryThumbnail, folderTitle)
				}
				if err != nil {
					return err
				}
				resources = append(resources, data)
			}

			builder := artifact.NewBuilder(h, cfg.MetadataDir(), artifact.Creator{
				Name:    cfg.Packaging.DefaultCreator,
				Website: cfg.Packaging.CreatorWebsite,
			}, logger)
			result, err := builder.Build(runCtx, artifact.Request{
				SourcePath:  source,
				Title:       flags.title,
				Description: flags.description,
				Creator:     artifact.Creator{Name: flags.creator, Website: flags.creatorWebsite},
				Parameters:  params,
				Resources:   resources,
				Output:      flags.output,
			})
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return writeJSON(cmd, result.Record)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Artifact %q written to %s\n", result.Record.Title, result.Path)
			fmt.Fprintf(out, "Hash: %s\n", result.Record.Hash)
			for _, r := range result.Record.Resources {
				fmt.Fprintf(out, "  %s (%s, %s): %s\n", r.Category, r.Location, r.Type, r.URI)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.title, "title", "", "Artifact title (defaults to the sample file name)")
	cmd.Flags().StringVar(&flags.creator, "creator", "", "Creator name (defaults to packaging.default_creator)")
	cmd.Flags().StringVar(&flags.creatorWebsite, "creator-website", "", "Creator website")
	cmd.Flags().StringVar(&flags.description, "description", "", "Artifact description")
	cmd.Flags().StringVar(&flags.paramsPath, "params", "", "Parameter overrides (.json, .jsonc, .yaml, .toml)")
	cmd.Flags().StringVar(&flags.thumbnail, "thumbnail", "", "Image packaged alongside the sample as a thumbnail resource")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Record path (defaults to <data_dir>/metadata/<hash>.json)")
	cmd.Flags().BoolVar(&flags.upload, "upload", false, "Pin the sample to the web instead of copying it into the resources tree")
	cmd.Flags().BoolVar(&flags.inPlace, "in-place", false, "Reference the sample at its current path instead of copying it")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print the record as JSON")
	cmd.MarkFlagsMutuallyExclusive("upload", "in-place")
	return cmd
}
