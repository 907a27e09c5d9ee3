package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"assetsync/internal/history"
	"assetsync/internal/manifest"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent register, scan, and validate activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.history()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("history is disabled (set history.enabled = true)")
			}
			events, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if events == nil {
				events = []history.Event{}
			}
			if asJSON {
				return writeJSON(cmd, events)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No history recorded")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				asset := ""
				if ev.Category != "" || ev.Filename != "" {
					asset = manifest.RelativePath(ev.Category, ev.Filename)
				}
				size := ""
				if ev.SizeBytes > 0 {
					size = humanize.IBytes(uint64(ev.SizeBytes))
				}
				rows = append(rows, []string{
					ev.At.Local().Format("2006-01-02 15:04:05"),
					shortRunID(ev.RunID),
					string(ev.Action),
					asset,
					size,
					ev.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Run", "Action", "Asset", "Size", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
