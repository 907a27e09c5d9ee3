package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetsync/internal/history"
	"assetsync/internal/reconcile"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var category string
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Adopt untracked files into the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.runContext(cmd.Context())
			var results []*reconcile.ScanResult
			err := ctx.withManifestLock(func() error {
				engine, err := ctx.openEngine()
				if err != nil {
					return err
				}
				if all {
					results, err = engine.ScanAll(runCtx)
					return err
				}
				result, err := engine.Scan(runCtx, category)
				if err != nil {
					return err
				}
				results = []*reconcile.ScanResult{result}
				return nil
			})
			if err != nil {
				return err
			}

			var events []history.Event
			for _, result := range results {
				for _, added := range result.Added {
					events = append(events, history.Event{
						Action:    history.ActionAdopt,
						Category:  result.Category,
						Filename:  added.Filename,
						Checksum:  added.Record.Checksum,
						SizeBytes: added.Record.SizeBytes,
					})
				}
			}
			ctx.record(runCtx, events...)

			if asJSON {
				return writeJSON(cmd, results)
			}
			printScanResults(cmd, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category folder to scan")
	cmd.Flags().BoolVar(&all, "all", false, "Scan every category folder under the storage root")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	cmd.MarkFlagsMutuallyExclusive("category", "all")
	cmd.MarkFlagsOneRequired("category", "all")
	return cmd
}

func printScanResults(cmd *cobra.Command, results []*reconcile.ScanResult) {
	out := cmd.OutOrStdout()
	total := 0
	for _, result := range results {
		switch {
		case result.Skipped:
			fmt.Fprintf(out, "%s: folder not found, skipped\n", result.Category)
			continue
		case len(result.Added) == 0 && !result.CategoryCreated:
			fmt.Fprintf(out, "%s: nothing new\n", result.Category)
		default:
			if result.CategoryCreated {
				fmt.Fprintf(out, "%s: new category\n", result.Category)
			}
			for _, added := range result.Added {
				fmt.Fprintf(out, "%s: adopted %s (%s)\n", result.Category, added.Filename, added.Record.SizeHuman)
			}
		}
		for _, name := range result.Vanished {
			fmt.Fprintf(out, "%s: %s vanished before it was hashed\n", result.Category, name)
		}
		total += len(result.Added)
	}
	fmt.Fprintf(out, "Adopted %d file(s)\n", total)
}
