package reconcile

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"

	"assetsync/internal/fileutil"
	"assetsync/internal/logging"
	"assetsync/internal/manifest"
)

// RegisterRequest describes a file to copy into the storage root.
type RegisterRequest struct {
	Source   string
	Category string
	// Filename defaults to the base name of Source.
	Filename string
	// Metadata is stored verbatim on the record.
	Metadata map[string]any
}

// Register copies Source into root/Category/Filename, replacing any existing
// file, and records it. Size and checksum are computed from the destination
// after the copy. A re-register replaces the whole record, including created.
// The manifest is only modified once the copy has completed.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*manifest.AssetRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	category, err := cleanName("category", req.Category)
	if err != nil {
		return nil, err
	}
	filename := req.Filename
	if filename == "" {
		filename = filepath.Base(req.Source)
	}
	filename, err = cleanName("filename", filename)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldCategory, category),
		logging.String(logging.FieldFilename, filename),
	)

	info, err := os.Stat(req.Source)
	switch {
	case err != nil && isNotExist(err):
		return nil, wrap(ErrSourceNotFound, "register", req.Source, nil)
	case err != nil:
		return nil, wrap(ErrIO, "register", req.Source, err)
	case !info.Mode().IsRegular():
		return nil, wrap(ErrSourceNotFound, "register", req.Source, errors.New("not a regular file"))
	}

	dest := filepath.Join(e.categoryDir(category), e.diskName(category, filename))
	copied, err := fileutil.CopyAtomic(req.Source, dest, 0o644)
	if err != nil {
		if isNotExist(err) {
			return nil, wrap(ErrSourceNotFound, "register", req.Source, err)
		}
		return nil, wrap(ErrIO, "copy", describe(category, filename), err)
	}
	size, sum, err := digestFile(dest)
	if err != nil {
		return nil, wrap(ErrIO, "hash", describe(category, filename), err)
	}
	if size != copied {
		return nil, wrap(ErrIO, "copy", describe(category, filename),
			errors.New("destination changed while it was being recorded"))
	}

	metadata := maps.Clone(req.Metadata)
	record := manifest.NewRecord(category, filename, size, sum, e.now(), metadata)

	previous, hadPrevious, categoryCreated := e.snapshot(category, filename)
	e.doc.Put(category, filename, record)
	if err := e.persist(); err != nil {
		e.restore(category, filename, previous, hadPrevious, categoryCreated)
		return nil, err
	}

	if hadPrevious {
		logger.Info("replaced asset", logging.Int64("size_bytes", size))
	} else {
		logger.Info("registered asset", logging.Int64("size_bytes", size))
	}
	return &record, nil
}

// diskName returns the existing on-disk spelling of filename in category so a
// re-register overwrites it instead of creating a second, differently
// normalized file.
func (e *Engine) diskName(category, filename string) string {
	listing, err := e.listing(category)
	if err != nil {
		return filename
	}
	if name, ok := listing[filename]; ok {
		return name
	}
	return filename
}

func (e *Engine) snapshot(category, filename string) (manifest.AssetRecord, bool, bool) {
	cat, ok := e.doc.Category(category)
	if !ok {
		return manifest.AssetRecord{}, false, true
	}
	record, had := cat.Assets[filename]
	return record, had, false
}

func (e *Engine) restore(category, filename string, previous manifest.AssetRecord, hadPrevious, categoryCreated bool) {
	if categoryCreated {
		delete(e.doc.Categories, category)
		return
	}
	cat, ok := e.doc.Category(category)
	if !ok {
		return
	}
	if hadPrevious {
		cat.Assets[filename] = previous
	} else {
		delete(cat.Assets, filename)
	}
	cat.Count = len(cat.Assets)
}
