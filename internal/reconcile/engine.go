package reconcile

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"assetsync/internal/logging"
	"assetsync/internal/manifest"
	"assetsync/internal/storage"
)

// Persister saves the manifest after a mutation. *manifest.Store implements it.
type Persister interface {
	Save(doc *manifest.Manifest) error
}

// Engine reconciles one manifest against one storage root.
type Engine struct {
	root    string
	doc     *manifest.Manifest
	store   Persister
	logger  *slog.Logger
	workers int
	ignore  []string
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger routes engine diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "reconcile")
	}
}

// WithWorkers bounds how many files are hashed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithIgnore sets file name patterns (filepath.Match syntax) skipped when
// listing category folders.
func WithIgnore(patterns []string) Option {
	return func(e *Engine) {
		e.ignore = append([]string(nil), patterns...)
	}
}

// WithClock overrides the time source used for created timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New binds an engine to root. The root must be an existing directory.
func New(root string, doc *manifest.Manifest, store Persister, opts ...Option) (*Engine, error) {
	if root == "" {
		return nil, wrap(ErrStorageUnavailable, "open", "no storage root resolved", nil)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, wrap(ErrStorageUnavailable, "open", root, err)
	}
	if !info.IsDir() {
		return nil, wrap(ErrStorageUnavailable, "open", root, errors.New("not a directory"))
	}
	if doc == nil {
		return nil, errors.New("reconcile: nil manifest")
	}
	e := &Engine{
		root:    root,
		doc:     doc,
		store:   store,
		logger:  logging.NewComponentLogger(nil, "reconcile"),
		workers: 4,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Open resolves the storage root once through loc and binds an engine to it.
func Open(loc storage.Locator, doc *manifest.Manifest, store Persister, opts ...Option) (*Engine, error) {
	if loc == nil {
		return nil, wrap(ErrStorageUnavailable, "open", "no locator configured", nil)
	}
	root, ok := loc.Resolve()
	if !ok {
		return nil, wrap(ErrStorageUnavailable, "open", "no candidate storage root exists", nil)
	}
	return New(root, doc, store, opts...)
}

// Root returns the storage root the engine is bound to.
func (e *Engine) Root() string {
	return e.root
}

// Manifest returns the in-memory document.
func (e *Engine) Manifest() *manifest.Manifest {
	return e.doc
}

// categoryDir returns the folder for category. When the exact name does not
// exist, a folder whose name normalizes to the same form is used instead.
func (e *Engine) categoryDir(category string) string {
	path := filepath.Join(e.root, category)
	if _, err := os.Lstat(path); err == nil {
		return path
	}
	entries, err := os.ReadDir(e.root)
	if err != nil {
		return path
	}
	want := manifest.NormalizeName(category)
	for _, entry := range entries {
		if manifest.NormalizeName(entry.Name()) == want {
			return filepath.Join(e.root, entry.Name())
		}
	}
	return path
}

func (e *Engine) persist() error {
	if e.store == nil {
		return wrap(ErrIO, "persist manifest", "", errors.New("no manifest store configured"))
	}
	if err := e.store.Save(e.doc); err != nil {
		return wrap(ErrIO, "persist manifest", "", err)
	}
	return nil
}

// cleanName normalizes and validates a category or filename.
func cleanName(kind, name string) (string, error) {
	name = manifest.NormalizeName(name)
	if err := manifest.ValidateName(kind, name); err != nil {
		return "", err
	}
	return name, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func describe(category, filename string) string {
	if filename == "" {
		return category
	}
	return manifest.RelativePath(category, filename)
}
