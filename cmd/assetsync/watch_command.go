package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"assetsync/internal/logging"
	"assetsync/internal/manifest"
	"assetsync/internal/reconcile"
	"assetsync/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var category string
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report drift as the sync client changes category folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			engine, err := ctx.openEngine()
			if err != nil {
				return err
			}
			if category != "" {
				category = manifest.NormalizeName(category)
			}
			w, err := watch.NewWatcher(engine.Root(),
				watch.WithDebounce(debounce),
				watch.WithIgnore(cfg.Scan.Ignore),
				watch.WithLogger(ctx.logger),
			)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			if err := w.Start(); err != nil {
				w.Stop()
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", engine.Root())
			return runWatch(signalCtx, out, engine, w.Changes, category, ctx.logger)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only report this category")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a change is reported")
	return cmd
}

// runWatch prints one drift line per debounced change until ctx is done or
// changes is closed.
func runWatch(ctx context.Context, out io.Writer, engine *reconcile.Engine, changes <-chan watch.Change, category string, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			name := manifest.NormalizeName(change.Category)
			if category != "" && name != category {
				continue
			}
			diff, err := engine.Diff(name)
			if err != nil {
				logger.Warn("diff after change failed", logging.String(logging.FieldCategory, name), logging.Error(err))
				continue
			}
			fmt.Fprintln(out, formatDrift(time.Now(), diff))
		}
	}
}

func formatDrift(at time.Time, diff *reconcile.Diff) string {
	state := "in sync"
	if len(diff.Untracked) > 0 || len(diff.Missing) > 0 {
		state = fmt.Sprintf("%d untracked, %d missing", len(diff.Untracked), len(diff.Missing))
	}
	line := fmt.Sprintf("%s %s: %d tracked on disk, %s", at.Format("15:04:05"), diff.Category, len(diff.Common), state)
	for _, name := range diff.Untracked {
		line += "\n  + " + name
	}
	for _, name := range diff.Missing {
		line += "\n  - " + name
	}
	return line
}
