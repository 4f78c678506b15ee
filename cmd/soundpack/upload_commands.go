package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"soundpack/internal/services"
	"soundpack/internal/upload"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Pin files and records to the web",
	}
	uploadCmd.AddCommand(newUploadFileCommand(ctx))
	uploadCmd.AddCommand(newUploadJSONCommand(ctx))
	return uploadCmd
}

func (c *commandContext) requireUploader() (upload.Uploader, error) {
	uploader, err := c.uploadClient()
	if err != nil {
		return nil, err
	}
	if uploader == nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "configure", "upload is disabled; set upload.enabled in the config", nil)
	}
	return uploader, nil
}

func newUploadFileCommand(ctx *commandContext) *cobra.Command {
	var name string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Pin a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploader, err := ctx.requireUploader()
			if err != nil {
				return err
			}
			pin, err := uploader.PinFile(runContext(cmd, "upload file"), args[0], name)
			if err != nil {
				return err
			}
			return printPin(cmd, pin, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Pin name (defaults to the file name)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the pin as JSON")
	return cmd
}

func newUploadJSONCommand(ctx *commandContext) *cobra.Command {
	var name string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "json <path>",
		Short: "Pin the contents of a JSON document, such as an artifact record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploader, err := ctx.requireUploader()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return services.WrapIO("upload", "read", args[0], err)
			}
			var content json.RawMessage
			if err := json.Unmarshal(data, &content); err != nil {
				return services.Wrap(services.ErrValidation, "upload", "decode", args[0], err)
			}
			if name == "" {
				name = filepath.Base(args[0])
			}
			pin, err := uploader.PinJSON(runContext(cmd, "upload json"), content, name)
			if err != nil {
				return err
			}
			return printPin(cmd, pin, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Pin name (defaults to the file name)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the pin as JSON")
	return cmd
}

func printPin(cmd *cobra.Command, pin upload.Pin, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, pin)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "CID: %s\n", pin.CID)
	fmt.Fprintf(out, "URL: %s\n", pin.URL)
	if pin.IsDuplicate {
		fmt.Fprintln(out, "Already pinned")
	}
	return nil
}
