package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"assetsync/internal/logging"
	"assetsync/internal/storage"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the storage root and create missing category folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Storage") {
				fmt.Fprintln(out, line)
			}
			root, err := ctx.resolveRoot(cfg)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Storage root", statusError, "not found", colorize))
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Storage root", statusOK, root, colorize))

			volume, err := storage.Probe(root)
			if err != nil {
				ctx.logger.Warn("storage probe failed", logging.Error(err))
				fmt.Fprintln(out, renderStatusLine("Volume", statusWarn, err.Error(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Free space", statusInfo,
					fmt.Sprintf("%s of %s", humanize.IBytes(volume.FreeBytes), humanize.IBytes(volume.TotalBytes)), colorize))
				accessKind := statusOK
				if !volume.Readable || !volume.Writable {
					accessKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Access", accessKind,
					fmt.Sprintf("read %s, write %s", yesNo(volume.Readable), yesNo(volume.Writable)), colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Folders") {
				fmt.Fprintln(out, line)
			}
			statuses, err := storage.Bootstrap(root, cfg.Storage.Subfolders)
			for _, status := range statuses {
				kind := statusOK
				if status.State == storage.FolderCreated {
					kind = statusInfo
					ctx.logger.Info("created category folder", logging.String("path", status.Path))
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, string(status.State), colorize))
			}
			if err != nil {
				return fmt.Errorf("bootstrap folders: %w", err)
			}
			return nil
		},
	}
}
