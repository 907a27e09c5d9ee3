package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"assetsync/internal/checksum"
	"assetsync/internal/logging"
	"assetsync/internal/manifest"
)

type assetCheck struct {
	findings []Finding
	missing  bool
	sizeOnly bool
}

// Verify compares every asset tracked in category and present on disk
// against its record. Size and checksum are compared independently, so both
// findings can fire for one asset. Tracked assets absent from disk are listed
// in Report.Missing. The manifest is not modified.
func (e *Engine) Verify(ctx context.Context, category string) (*Report, error) {
	category, err := cleanName("category", category)
	if err != nil {
		return nil, err
	}
	return e.verify(ctx, category)
}

// Validate verifies every category in the manifest and aggregates the
// results. One bad asset never stops the audit of the rest.
func (e *Engine) Validate(ctx context.Context) (*Report, error) {
	logger := logging.WithContext(ctx, e.logger)
	report := newReport()
	for _, name := range e.doc.CategoryNames() {
		if err := manifest.ValidateName("category", name); err != nil {
			// Unsafe to resolve on disk; every record is unlocatable.
			part := newReport(name)
			cat, _ := e.doc.Category(name)
			for _, filename := range cat.AssetNames() {
				part.Missing = append(part.Missing, AssetRef{Category: name, Filename: filename})
			}
			report.Merge(part)
			continue
		}
		part, err := e.verify(ctx, name)
		if err != nil {
			return nil, err
		}
		report.Merge(part)
	}
	report.sort()
	logger.Info("validation complete",
		logging.Int("categories", len(report.Categories)),
		logging.Int("checked", report.Checked),
		logging.Int("findings", len(report.Findings)),
		logging.Int("missing", len(report.Missing)),
	)
	return report, nil
}

func (e *Engine) verify(ctx context.Context, category string) (*Report, error) {
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldCategory, category))
	diff, tracked, listing, err := e.diff(category)
	if err != nil {
		return nil, err
	}
	cat, _ := e.doc.Category(category)

	report := newReport(category)
	for _, name := range diff.Missing {
		report.Missing = append(report.Missing, AssetRef{Category: category, Filename: name})
	}

	results := make([]assetCheck, len(diff.Common))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)
	for i, name := range diff.Common {
		record := cat.Assets[tracked[name]]
		path := filepath.Join(e.categoryDir(category), listing[name])
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			check, err := checkAsset(category, name, path, record)
			if err != nil {
				return wrap(ErrIO, "verify", describe(category, name), err)
			}
			results[i] = check
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for i, name := range diff.Common {
		check := results[i]
		ref := AssetRef{Category: category, Filename: name}
		if check.missing {
			logger.Debug("asset vanished during verification", logging.String(logging.FieldFilename, name))
			report.Missing = append(report.Missing, ref)
			continue
		}
		report.Checked++
		report.Findings = append(report.Findings, check.findings...)
		if check.sizeOnly {
			report.SizeOnly = append(report.SizeOnly, ref)
		}
	}
	report.sort()

	for _, f := range report.Findings {
		logger.Warn("asset does not match manifest",
			logging.String(logging.FieldFilename, f.Filename),
			logging.String("kind", string(f.Kind)),
		)
	}
	logger.Debug("category verified",
		logging.Int("checked", report.Checked),
		logging.Int("missing", len(report.Missing)),
		logging.Int("untracked", len(diff.Untracked)),
	)
	return report, nil
}

// checkAsset compares one file against its record. A file that no longer
// exists is reported as missing rather than as an error.
func checkAsset(category, name, path string, record manifest.AssetRecord) (assetCheck, error) {
	info, err := os.Stat(path)
	if err != nil {
		if isNotExist(err) {
			return assetCheck{missing: true}, nil
		}
		return assetCheck{}, err
	}

	var check assetCheck
	if info.Size() != record.SizeBytes {
		check.findings = append(check.findings, Finding{
			Kind:         SizeMismatch,
			Category:     category,
			Filename:     name,
			ExpectedSize: record.SizeBytes,
			ActualSize:   info.Size(),
		})
	}

	expected := strings.TrimSpace(record.Checksum)
	if expected == "" {
		check.sizeOnly = true
		return check, nil
	}
	size, actual, err := digestFile(path)
	if err != nil {
		if isNotExist(err) {
			return assetCheck{missing: true}, nil
		}
		return assetCheck{}, err
	}
	if !checksum.Equal(expected, actual) {
		check.findings = append(check.findings, Finding{
			Kind:             ChecksumMismatch,
			Category:         category,
			Filename:         name,
			ExpectedSize:     record.SizeBytes,
			ActualSize:       size,
			ExpectedChecksum: expected,
			ActualChecksum:   actual,
		})
	}
	return check, nil
}
