package reconcile

import (
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestListingSkipsDirectoriesIgnoredAndSymlinkedDirs(t *testing.T) {
	f := newFixture(t)
	f.write(t, "samples", "kick.wav", []byte("kick"))
	f.write(t, "samples", ".DS_Store", []byte("junk"))
	f.write(t, "samples", ".kick.wav.123.tmp", []byte("partial"))
	f.write(t, "samples", "nested/inner.wav", []byte("inner"))
	if err := os.Symlink(filepath.Join(f.root, "samples", "kick.wav"), filepath.Join(f.root, "samples", "link.wav")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(f.root, "samples", "nested"), filepath.Join(f.root, "samples", "dirlink")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(f.root, "nowhere"), filepath.Join(f.root, "samples", "dangling.wav")); err != nil {
		t.Fatal(err)
	}

	listing, err := f.engine(t).Listing("samples")
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if got := strings.Join(listing.Names(), ","); got != "kick.wav,link.wav" {
		t.Fatalf("unexpected listing %q", got)
	}
}

func TestListingMissingFolderIsEmpty(t *testing.T) {
	f := newFixture(t)
	listing, err := f.engine(t).Listing("presets")
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if len(listing) != 0 {
		t.Fatalf("expected empty listing, got %v", listing)
	}
}

func TestListingRejectsPathNames(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	for _, name := range []string{"../escape", "a/b", "..", ""} {
		if _, err := e.Listing(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("Listing(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestDiffPartitions(t *testing.T) {
	f := newFixture(t)
	f.write(t, "samples", "kick.wav", []byte("kick"))
	f.write(t, "samples", "snare.wav", []byte("snare"))
	f.track(t, "samples", "kick.wav", []byte("kick"))
	f.track(t, "samples", "hat.wav", []byte("hat"))

	diff, err := f.engine(t).Diff("samples")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if strings.Join(diff.Untracked, ",") != "snare.wav" {
		t.Fatalf("unexpected untracked %v", diff.Untracked)
	}
	if strings.Join(diff.Missing, ",") != "hat.wav" {
		t.Fatalf("unexpected missing %v", diff.Missing)
	}
	if strings.Join(diff.Common, ",") != "kick.wav" {
		t.Fatalf("unexpected common %v", diff.Common)
	}
}

func TestDiffSetProperties(t *testing.T) {
	f := newFixture(t)
	onDisk := []string{"a.wav", "b.wav", "c.wav", "d.wav"}
	tracked := []string{"c.wav", "d.wav", "e.wav", "f.wav"}
	for _, name := range onDisk {
		f.write(t, "samples", name, []byte(name))
	}
	for _, name := range tracked {
		f.track(t, "samples", name, []byte(name))
	}

	diff, err := f.engine(t).Diff("samples")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	seen := map[string]int{}
	for _, set := range [][]string{diff.Untracked, diff.Missing, diff.Common} {
		for _, name := range set {
			seen[name]++
		}
	}
	for name, n := range seen {
		if n != 1 {
			t.Fatalf("%s appears in %d sets", name, n)
		}
	}
	union := func(a, b []string) string {
		all := append(append([]string{}, a...), b...)
		set := map[string]struct{}{}
		for _, v := range all {
			set[v] = struct{}{}
		}
		return strings.Join(slices.Sorted(maps.Keys(set)), ",")
	}
	if got := union(diff.Common, diff.Missing); got != strings.Join(tracked, ",") {
		t.Fatalf("common ∪ missing = %s, want tracked %v", got, tracked)
	}
	if got := union(diff.Common, diff.Untracked); got != strings.Join(onDisk, ",") {
		t.Fatalf("common ∪ untracked = %s, want on-disk %v", got, onDisk)
	}
}

func TestDiffMatchesDecomposedNames(t *testing.T) {
	f := newFixture(t)
	composed := "caf\u00e9.wav"
	decomposed := "cafe\u0301.wav"
	f.write(t, "samples", decomposed, []byte("espresso"))
	f.track(t, "samples", composed, []byte("espresso"))

	e := f.engine(t)
	diff, err := e.Diff("samples")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diff.Untracked) != 0 || len(diff.Missing) != 0 || len(diff.Common) != 1 {
		t.Fatalf("expected a single common asset, got %+v", diff)
	}
	report, err := e.Verify(t.Context(), "samples")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.OK() || report.Checked != 1 {
		t.Fatalf("expected clean verify of decomposed name, got %+v", report)
	}
}

func TestCategoriesSkipsHiddenAndFiles(t *testing.T) {
	f := newFixture(t)
	for _, dir := range []string{"samples", "presets", ".dropbox.cache"} {
		if err := os.MkdirAll(filepath.Join(f.root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(f.root, "README.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	names, err := f.engine(t).Categories()
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if got := strings.Join(names, ","); got != "presets,samples" {
		t.Fatalf("unexpected categories %q", got)
	}
}
