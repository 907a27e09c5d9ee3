package reconcile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"assetsync/internal/checksum"
	"assetsync/internal/manifest"
	"assetsync/internal/storage"
)

var testClock = func() time.Time {
	return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
}

type fixture struct {
	root  string
	store *manifest.Store
	doc   *manifest.Manifest
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "storage")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	store := manifest.NewStore(filepath.Join(base, "repo", "assets", "manifest.yaml"))
	doc, err := store.Load()
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	return &fixture{root: root, store: store, doc: doc}
}

func (f *fixture) engine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(testClock), WithIgnore([]string{".DS_Store", ".*.tmp"})}, opts...)
	e, err := New(f.root, f.doc, f.store, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func (f *fixture) write(t *testing.T, category, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.root, category, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// track adds a record describing data without touching disk.
func (f *fixture) track(t *testing.T, category, name string, data []byte) {
	t.Helper()
	sum, err := checksum.Reader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	f.doc.Put(category, name, manifest.NewRecord(category, name, int64(len(data)), sum, testClock(), nil))
}

func (f *fixture) reload(t *testing.T) *manifest.Manifest {
	t.Helper()
	doc, err := f.store.Load()
	if err != nil {
		t.Fatalf("reload manifest: %v", err)
	}
	return doc
}

func assertCounts(t *testing.T, doc *manifest.Manifest) {
	t.Helper()
	for name, cat := range doc.Categories {
		if cat.Count != len(cat.Assets) {
			t.Fatalf("category %s: count %d != %d assets", name, cat.Count, len(cat.Assets))
		}
	}
}

type failingStore struct{ calls int }

func (s *failingStore) Save(*manifest.Manifest) error {
	s.calls++
	return errors.New("disk full")
}

func TestNewRequiresExistingRoot(t *testing.T) {
	doc := manifest.Default("", "")
	if _, err := New("", doc, nil); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable for empty root, got %v", err)
	}
	if _, err := New(filepath.Join(t.TempDir(), "missing"), doc, nil); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable for missing root, got %v", err)
	}
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(file, doc, nil); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable for file root, got %v", err)
	}
}

func TestOpenResolvesThroughLocator(t *testing.T) {
	doc := manifest.Default("", "")
	if _, err := Open(&storage.CandidateLocator{Candidates: []string{filepath.Join(t.TempDir(), "nope")}}, doc, nil); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	root := t.TempDir()
	e, err := Open(storage.StaticLocator(root), doc, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.Root() != root {
		t.Fatalf("expected root %s, got %s", root, e.Root())
	}
}

func TestMutationWithoutStoreFails(t *testing.T) {
	f := newFixture(t)
	f.write(t, "samples", "a.wav", []byte("a"))
	e, err := New(f.root, f.doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Scan(context.Background(), "samples"); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO without a store, got %v", err)
	}
	if _, ok := f.doc.Category("samples"); ok {
		t.Fatal("expected manifest rolled back")
	}
}

func withoutChecksum(record manifest.AssetRecord) manifest.AssetRecord {
	record.Checksum = ""
	return record
}
