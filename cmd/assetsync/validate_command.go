package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"assetsync/internal/history"
	"assetsync/internal/reconcile"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var strict bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compare every tracked asset's size and checksum against disk",
		Long: "Validate is read-only. It exits non-zero when any size or checksum " +
			"mismatch is found, and with --strict also when tracked assets are missing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.runContext(cmd.Context())
			engine, err := ctx.openEngine()
			if err != nil {
				return err
			}
			report, err := engine.Validate(runCtx)
			if err != nil {
				return err
			}

			counts := report.Counts()
			ctx.record(runCtx, history.Event{
				Action: history.ActionValidate,
				Detail: fmt.Sprintf("checked=%d size_mismatch=%d checksum_mismatch=%d missing=%d",
					report.Checked, counts[reconcile.SizeMismatch], counts[reconcile.ChecksumMismatch], len(report.Missing)),
			})

			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printReport(cmd, report)
			}

			switch {
			case report.HasMismatches():
				return fmt.Errorf("validation failed: %d mismatch(es)", len(report.Findings))
			case strict && len(report.Missing) > 0:
				return fmt.Errorf("validation failed: %d missing asset(s)", len(report.Missing))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat missing assets as failures")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report *reconcile.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	if len(report.Findings) > 0 {
		rows := make([][]string, 0, len(report.Findings))
		for _, f := range report.Findings {
			expected, actual := strconv.FormatInt(f.ExpectedSize, 10), strconv.FormatInt(f.ActualSize, 10)
			if f.Kind == reconcile.ChecksumMismatch {
				expected, actual = shortChecksum(f.ExpectedChecksum), shortChecksum(f.ActualChecksum)
			}
			rows = append(rows, []string{f.Path(), string(f.Kind), expected, actual})
		}
		fmt.Fprintln(out, renderTable([]string{"Asset", "Finding", "Expected", "Actual"}, rows, nil))
	}
	for _, ref := range report.Missing {
		fmt.Fprintln(out, renderStatusLine(ref.Path(), statusWarn, "missing", colorize))
	}
	for _, ref := range report.SizeOnly {
		fmt.Fprintln(out, renderStatusLine(ref.Path(), statusInfo, "no checksum recorded; size checked only", colorize))
	}

	kind := statusOK
	switch {
	case report.HasMismatches():
		kind = statusError
	case len(report.Missing) > 0:
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Summary", kind,
		fmt.Sprintf("%d checked, %d mismatch(es), %d missing across %d categories",
			report.Checked, len(report.Findings), len(report.Missing), len(report.Categories)), colorize))
}
