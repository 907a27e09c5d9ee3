package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"assetsync/internal/config"
	"assetsync/internal/history"
	"assetsync/internal/manifest"
	"assetsync/internal/reconcile"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var category string
	var filename string
	var meta []string

	cmd := &cobra.Command{
		Use:   "register <file>",
		Short: "Copy a file into a category folder and record it in the manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}
			name := filename
			if name == "" {
				name = filepath.Base(source)
			}

			runCtx := ctx.runContext(cmd.Context())
			var record *manifest.AssetRecord
			err = ctx.withManifestLock(func() error {
				engine, err := ctx.openEngine()
				if err != nil {
					return err
				}
				record, err = engine.Register(runCtx, reconcile.RegisterRequest{
					Source:   source,
					Category: category,
					Filename: name,
					Metadata: metadata,
				})
				return err
			})
			if err != nil {
				return err
			}

			name = manifest.NormalizeName(name)
			category = manifest.NormalizeName(category)
			ctx.record(runCtx, history.Event{
				Action:    history.ActionRegister,
				Category:  category,
				Filename:  name,
				Checksum:  record.Checksum,
				SizeBytes: record.SizeBytes,
				Detail:    "from " + source,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s, sha256 %s)\n",
				record.RelativePath, record.SizeHuman, shortChecksum(record.Checksum))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category folder to register into")
	cmd.Flags().StringVar(&filename, "filename", "", "Name to store the file under (default: source base name)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata entry key=value (repeatable; values are parsed as YAML scalars)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

// parseMetadata turns key=value pairs into a metadata map. Values are decoded
// as YAML scalars so that numbers and booleans keep their type.
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q: expected key=value", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		switch value.(type) {
		case map[string]any, []any:
			value = raw
		case nil:
			if strings.TrimSpace(raw) == "" {
				value = ""
			}
		}
		metadata[key] = value
	}
	return metadata, nil
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	if sum == "" {
		return "none"
	}
	return sum
}
