package reconcile

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"assetsync/internal/logging"
	"assetsync/internal/manifest"
)

// ScannedMetadataKey marks records adopted by Scan rather than registered.
const ScannedMetadataKey = "scanned"

// AdoptedAsset is one record added by Scan.
type AdoptedAsset struct {
	Filename string               `json:"filename"`
	Record   manifest.AssetRecord `json:"record"`
}

// ScanResult describes what Scan did for one category.
type ScanResult struct {
	Category string `json:"category"`
	// Skipped is set when the category folder does not exist.
	Skipped bool `json:"skipped,omitempty"`
	// CategoryCreated is set when the category was new to the manifest.
	CategoryCreated bool           `json:"category_created,omitempty"`
	Added           []AdoptedAsset `json:"added"`
	// Vanished lists untracked files that disappeared before they were hashed.
	Vanished []string `json:"vanished,omitempty"`
}

// Changed reports whether the result altered the manifest.
func (r *ScanResult) Changed() bool {
	return r != nil && (len(r.Added) > 0 || r.CategoryCreated)
}

// Scan adopts every untracked file in category with metadata {scanned: true}.
// Tracked and missing assets are left alone. All records are computed before
// any is applied, so an I/O failure leaves the manifest unchanged. The
// manifest is persisted only when something changed.
func (e *Engine) Scan(ctx context.Context, category string) (*ScanResult, error) {
	category, err := cleanName("category", category)
	if err != nil {
		return nil, err
	}
	result, err := e.planScan(ctx, category)
	if err != nil {
		return nil, err
	}
	if err := e.applyScans(ctx, []*ScanResult{result}); err != nil {
		return nil, err
	}
	return result, nil
}

// ScanAll scans every category folder under the storage root and persists
// once. Hidden folders are skipped.
func (e *Engine) ScanAll(ctx context.Context) ([]*ScanResult, error) {
	categories, err := e.Categories()
	if err != nil {
		return nil, err
	}
	results := make([]*ScanResult, 0, len(categories))
	for _, category := range categories {
		if err := manifest.ValidateName("category", category); err != nil {
			continue
		}
		result, err := e.planScan(ctx, category)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := e.applyScans(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

type adoption struct {
	size     int64
	sum      string
	vanished bool
}

func (e *Engine) planScan(ctx context.Context, category string) (*ScanResult, error) {
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldCategory, category))
	result := &ScanResult{Category: category, Added: []AdoptedAsset{}}

	info, err := os.Stat(e.categoryDir(category))
	if err != nil || !info.IsDir() {
		if err != nil && !isNotExist(err) {
			return nil, wrap(ErrIO, "scan", category, err)
		}
		logger.Debug("category folder not found; skipping")
		result.Skipped = true
		return result, nil
	}

	diff, _, listing, err := e.diff(category)
	if err != nil {
		return nil, err
	}
	_, known := e.doc.Category(category)
	result.CategoryCreated = !known

	adoptions := make([]adoption, len(diff.Untracked))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)
	for i, name := range diff.Untracked {
		path := filepath.Join(e.categoryDir(category), listing[name])
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			size, sum, err := digestFile(path)
			if err != nil {
				if isNotExist(err) {
					adoptions[i] = adoption{vanished: true}
					return nil
				}
				return wrap(ErrIO, "scan", describe(category, name), err)
			}
			adoptions[i] = adoption{size: size, sum: sum}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	now := e.now()
	for i, name := range diff.Untracked {
		a := adoptions[i]
		if a.vanished {
			logging.WarnWithContext(logger, "untracked file vanished before hashing", "scan_file_vanished",
				logging.String(logging.FieldFilename, name),
				logging.String(logging.FieldImpact, "file not adopted"),
				logging.String(logging.FieldErrorHint, "rerun scan once the sync client settles"),
			)
			result.Vanished = append(result.Vanished, name)
			continue
		}
		record := manifest.NewRecord(category, name, a.size, a.sum, now, map[string]any{ScannedMetadataKey: true})
		result.Added = append(result.Added, AdoptedAsset{Filename: name, Record: record})
	}
	return result, nil
}

// applyScans inserts every planned record, then persists once. On persist
// failure the in-memory manifest is restored.
func (e *Engine) applyScans(ctx context.Context, results []*ScanResult) error {
	logger := logging.WithContext(ctx, e.logger)
	changed := false
	for _, result := range results {
		if result.Changed() {
			changed = true
		}
	}
	if !changed {
		logger.Debug("scan found nothing to adopt")
		return nil
	}

	for _, result := range results {
		if !result.Changed() {
			continue
		}
		e.doc.EnsureCategory(result.Category)
		for _, added := range result.Added {
			e.doc.Put(result.Category, added.Filename, added.Record)
		}
	}
	if err := e.persist(); err != nil {
		e.rollbackScans(results)
		return err
	}

	for _, result := range results {
		for _, added := range result.Added {
			logger.Info("adopted asset",
				logging.String(logging.FieldCategory, result.Category),
				logging.String(logging.FieldFilename, added.Filename),
				logging.Int64("size_bytes", added.Record.SizeBytes),
			)
		}
	}
	return nil
}

func (e *Engine) rollbackScans(results []*ScanResult) {
	for _, result := range results {
		if result.CategoryCreated {
			delete(e.doc.Categories, result.Category)
			continue
		}
		cat, ok := e.doc.Category(result.Category)
		if !ok {
			continue
		}
		for _, added := range result.Added {
			delete(cat.Assets, added.Filename)
		}
		cat.Count = len(cat.Assets)
	}
}
