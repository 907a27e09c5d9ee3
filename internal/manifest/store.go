package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"assetsync/internal/fileutil"
	"assetsync/internal/logging"
)

// ErrCorrupt marks a manifest document that exists but cannot be parsed.
var ErrCorrupt = errors.New("manifest corrupt")

// DefaultPath is the repository-relative location of the manifest.
const DefaultPath = "assets/manifest.yaml"

// Store loads and persists a manifest document at a fixed path.
type Store struct {
	path            string
	logger          *slog.Logger
	now             func() time.Time
	version         string
	storageRootName string
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithLogger routes store diagnostics to logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "manifest")
	}
}

// WithClock overrides the time source used for last_updated.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaults sets the version and storage root name used when no document exists.
func WithDefaults(version, storageRootName string) StoreOption {
	return func(s *Store) {
		s.version = version
		s.storageRootName = storageRootName
	}
}

// NewStore returns a store for the manifest at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: logging.NewComponentLogger(nil, "manifest"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the manifest file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the manifest. A missing document yields a fresh default; a
// document that exists but does not parse yields an error wrapping ErrCorrupt.
func (s *Store) Load() (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("manifest not found; using defaults", logging.String("path", s.path))
			doc := Default(s.storageRootName, s.version)
			doc.LastUpdated = Timestamp{Time: s.now().UTC()}
			return doc, nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", s.path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
	}
	s.logger.Debug("loaded manifest",
		logging.String("path", s.path),
		logging.Int("category_count", len(doc.Categories)),
		logging.Int("asset_count", doc.AssetCount()),
	)
	return doc, nil
}

// Save stamps last_updated, recomputes derived fields, and atomically replaces
// the document on disk.
func (s *Store) Save(doc *Manifest) error {
	if doc == nil {
		return errors.New("save manifest: nil document")
	}
	doc.LastUpdated = Timestamp{Time: s.now().UTC().Truncate(time.Microsecond)}
	doc.RecomputeDerived()

	data, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", s.path, err)
	}
	s.logger.Debug("saved manifest",
		logging.String("path", s.path),
		logging.Int("asset_count", doc.AssetCount()),
	)
	return nil
}

// Decode parses a manifest document.
func Decode(data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("document is empty")
	}
	var doc Manifest
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Categories == nil {
		doc.Categories = map[string]*Category{}
	}
	return &doc, nil
}

// Encode renders the manifest as YAML with two-space indentation.
func Encode(doc *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
