package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetsync/internal/manifest"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Lint the manifest document without touching the storage root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, err := ctx.manifestStore(cfg).Load()
			if err != nil {
				return err
			}
			problems := doc.Check()
			if problems == nil {
				problems = []manifest.Problem{}
			}

			if asJSON {
				if err := writeJSON(cmd, problems); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, p := range problems {
					fmt.Fprintln(out, p.String())
				}
				fmt.Fprintf(out, "%d categories, %d assets, %d problem(s)\n",
					len(doc.Categories), doc.AssetCount(), len(problems))
			}
			if len(problems) > 0 {
				return fmt.Errorf("manifest check failed: %d problem(s) in %s", len(problems), cfg.Paths.Manifest)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}
