package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"assetsync/internal/manifest"
	"assetsync/internal/reconcile"
)

type categorySummary struct {
	Category  string   `json:"category"`
	Tracked   int      `json:"tracked"`
	OnDisk    int      `json:"on_disk"`
	Untracked []string `json:"untracked"`
	Missing   []string `json:"missing"`
	// InManifest is false for folders on disk the manifest does not know.
	InManifest bool `json:"in_manifest"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show tracked and untracked files per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.openEngine()
			if err != nil {
				return err
			}
			if category != "" {
				return listCategory(cmd, engine, category, asJSON)
			}
			return listAll(cmd, engine, asJSON)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Show per-file status for one category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func summarize(engine *reconcile.Engine) ([]categorySummary, error) {
	onDisk, err := engine.Categories()
	if err != nil {
		return nil, err
	}
	doc := engine.Manifest()
	names := doc.CategoryNames()
	for _, name := range onDisk {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	summaries := make([]categorySummary, 0, len(names))
	for _, name := range names {
		diff, err := engine.Diff(name)
		if err != nil {
			return nil, err
		}
		_, known := doc.Category(name)
		summaries = append(summaries, categorySummary{
			Category:   name,
			Tracked:    len(diff.Common) + len(diff.Missing),
			OnDisk:     len(diff.Common) + len(diff.Untracked),
			Untracked:  diff.Untracked,
			Missing:    diff.Missing,
			InManifest: known,
		})
	}
	return summaries, nil
}

func listAll(cmd *cobra.Command, engine *reconcile.Engine, asJSON bool) error {
	summaries, err := summarize(engine)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, summaries)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Storage root: %s\n", engine.Root())
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No categories tracked or found on disk")
		return nil
	}
	rows := make([][]string, 0, len(summaries))
	var untrackedFolders []string
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Category,
			strconv.Itoa(s.Tracked),
			strconv.Itoa(s.OnDisk),
			strconv.Itoa(len(s.Untracked)),
			strconv.Itoa(len(s.Missing)),
		})
		if !s.InManifest {
			untrackedFolders = append(untrackedFolders, s.Category)
		}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Category", "Tracked", "On disk", "Untracked", "Missing"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	if len(untrackedFolders) > 0 {
		fmt.Fprintln(out, "Folders not in manifest:")
		for _, name := range untrackedFolders {
			fmt.Fprintf(out, "  %s (run `assetsync scan --category %s`)\n", name, name)
		}
	}
	return nil
}

type assetStatus struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	SizeHuman string `json:"size_human,omitempty"`
}

func listCategory(cmd *cobra.Command, engine *reconcile.Engine, category string, asJSON bool) error {
	category = manifest.NormalizeName(category)
	diff, err := engine.Diff(category)
	if err != nil {
		return err
	}
	var records map[string]manifest.AssetRecord
	if cat, ok := engine.Manifest().Category(category); ok {
		records = cat.Assets
	}

	statuses := make([]assetStatus, 0, len(diff.Common)+len(diff.Missing)+len(diff.Untracked))
	for _, name := range diff.Common {
		statuses = append(statuses, assetStatus{Filename: name, Status: "tracked", SizeHuman: records[name].SizeHuman})
	}
	for _, name := range diff.Missing {
		statuses = append(statuses, assetStatus{Filename: name, Status: "missing", SizeHuman: records[name].SizeHuman})
	}
	for _, name := range diff.Untracked {
		statuses = append(statuses, assetStatus{Filename: name, Status: "untracked"})
	}
	slices.SortFunc(statuses, func(a, b assetStatus) int {
		return cmp.Compare(a.Filename, b.Filename)
	})

	if asJSON {
		return writeJSON(cmd, statuses)
	}
	out := cmd.OutOrStdout()
	if len(statuses) == 0 {
		fmt.Fprintf(out, "Category %s is empty\n", category)
		return nil
	}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{s.Filename, s.Status, s.SizeHuman})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "Status", "Size"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight}))
	return nil
}
