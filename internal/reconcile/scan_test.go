package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScanAdoptsUntracked(t *testing.T) {
	f := newFixture(t)
	f.write(t, "samples", "kick.wav", []byte("kick"))
	f.track(t, "samples", "kick.wav", []byte("kick"))
	f.write(t, "samples", "snare.wav", []byte("snare drum"))
	before := f.doc.Categories["samples"].Count

	result, err := f.engine(t).Scan(context.Background(), "samples")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Added) != 1 || result.Added[0].Filename != "snare.wav" {
		t.Fatalf("expected snare.wav adopted, got %+v", result.Added)
	}
	if result.CategoryCreated {
		t.Fatal("samples already existed")
	}

	doc := f.reload(t)
	cat := doc.Categories["samples"]
	if cat.Count != before+1 {
		t.Fatalf("expected count %d, got %d", before+1, cat.Count)
	}
	record := cat.Assets["snare.wav"]
	if record.Metadata[ScannedMetadataKey] != true {
		t.Fatalf("expected scanned metadata, got %#v", record.Metadata)
	}
	if record.SizeBytes != int64(len("snare drum")) || record.RelativePath != "samples/snare.wav" {
		t.Fatalf("unexpected record %+v", record)
	}
	if !record.Created.Equal(testClock()) {
		t.Fatalf("expected created from clock, got %v", record.Created)
	}
	assertCounts(t, doc)

	report, err := f.engine(t).Verify(context.Background(), "samples")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected adopted asset to verify, got %+v", report)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.write(t, "samples", "a.wav", []byte("a"))
	f.write(t, "samples", "b.wav", []byte("b"))

	e := f.engine(t)
	first, err := e.Scan(context.Background(), "samples")
	if err != nil {
		t.Fatalf("first Scan: %v", err)
	}
	if len(first.Added) != 2 || !first.CategoryCreated {
		t.Fatalf("unexpected first scan %+v", first)
	}
	info, err := os.Stat(f.store.Path())
	if err != nil {
		t.Fatalf("expected manifest saved: %v", err)
	}

	second, err := e.Scan(context.Background(), "samples")
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if len(second.Added) != 0 || second.Changed() {
		t.Fatalf("expected no changes on second scan, got %+v", second)
	}
	after, err := os.Stat(f.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(info.ModTime()) {
		t.Fatal("unchanged scan must not rewrite the manifest")
	}
}

func TestScanLeavesTrackedAndMissingAlone(t *testing.T) {
	f := newFixture(t)
	f.track(t, "samples", "kick.wav", []byte("kick"))
	f.write(t, "samples", "kick.wav", []byte("tampered"))
	f.track(t, "samples", "hat.wav", []byte("hat"))
	original := f.doc.Categories["samples"].Assets["kick.wav"]

	if _, err := f.engine(t).Scan(context.Background(), "samples"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	cat := f.doc.Categories["samples"]
	if cat.Assets["kick.wav"].Checksum != original.Checksum {
		t.Fatal("scan must not repair tracked records")
	}
	if _, ok := cat.Assets["hat.wav"]; !ok {
		t.Fatal("scan must not drop missing records")
	}
}

func TestScanMissingFolderSkipped(t *testing.T) {
	f := newFixture(t)
	result, err := f.engine(t).Scan(context.Background(), "raw_recordings")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !result.Skipped || result.Changed() {
		t.Fatalf("expected skipped result, got %+v", result)
	}
	if _, ok := f.doc.Category("raw_recordings"); ok {
		t.Fatal("missing folder must not create a category")
	}
}

func TestScanEmptyNewFolderCreatesCategory(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(filepath.Join(f.root, "processed"), 0o755); err != nil {
		t.Fatal(err)
	}
	result, err := f.engine(t).Scan(context.Background(), "processed")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !result.CategoryCreated {
		t.Fatalf("expected category created, got %+v", result)
	}
	cat, ok := f.reload(t).Category("processed")
	if !ok || cat.Count != 0 || cat.Description != "processed assets" {
		t.Fatalf("unexpected persisted category %+v", cat)
	}
}

func TestScanAllIteratesFolders(t *testing.T) {
	f := newFixture(t)
	f.write(t, "samples", "a.wav", []byte("a"))
	f.write(t, "presets", "b.fxp", []byte("b"))
	f.write(t, ".hidden", "c.bin", []byte("c"))
	f.write(t, "samples", ".DS_Store", []byte("junk"))

	results, err := f.engine(t, WithWorkers(1)).ScanAll(context.Background())
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	var names []string
	for _, r := range results {
		names = append(names, r.Category)
	}
	if strings.Join(names, ",") != "presets,samples" {
		t.Fatalf("unexpected scanned categories %v", names)
	}
	doc := f.reload(t)
	if doc.AssetCount() != 2 {
		t.Fatalf("expected 2 adopted assets, got %d", doc.AssetCount())
	}
	if _, ok := doc.Category(".hidden"); ok {
		t.Fatal("hidden folders must be skipped")
	}
	assertCounts(t, doc)
}

func TestScanRollsBackWhenPersistFails(t *testing.T) {
	f := newFixture(t)
	f.write(t, "samples", "a.wav", []byte("a"))
	f.write(t, "presets", "b.fxp", []byte("b"))
	f.track(t, "presets", "old.fxp", []byte("old"))
	store := &failingStore{}

	e, err := New(f.root, f.doc, store)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.ScanAll(context.Background()); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected a single persist attempt, got %d", store.calls)
	}
	if _, ok := f.doc.Category("samples"); ok {
		t.Fatal("new category should be rolled back")
	}
	presets := f.doc.Categories["presets"]
	if len(presets.Assets) != 1 || presets.Count != 1 {
		t.Fatalf("expected presets restored, got %+v", presets)
	}
}

func TestScanReadErrorDiscardsBatch(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	f := newFixture(t)
	f.write(t, "samples", "a.wav", []byte("a"))
	locked := f.write(t, "samples", "b.wav", []byte("b"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	if _, err := f.engine(t).Scan(context.Background(), "samples"); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if _, ok := f.doc.Category("samples"); ok {
		t.Fatal("partial scan results must be discarded")
	}
	if _, err := os.Stat(f.store.Path()); !os.IsNotExist(err) {
		t.Fatalf("manifest must not be written, stat err=%v", err)
	}
}

func TestScanMatchesDecomposedCategoryKey(t *testing.T) {
	f := newFixture(t)
	composed, decomposed := "caf\u00e9", "cafe\u0301"
	f.write(t, composed, "kick.wav", []byte("kick"))
	f.track(t, decomposed, "kick.wav", []byte("kick"))
	f.write(t, composed, "snare.wav", []byte("snare"))

	result, err := f.engine(t).Scan(context.Background(), composed)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.CategoryCreated {
		t.Fatal("decomposed category key should be recognised")
	}
	if len(result.Added) != 1 || result.Added[0].Filename != "snare.wav" {
		t.Fatalf("expected only snare.wav adopted, got %+v", result.Added)
	}

	doc := f.reload(t)
	if len(doc.Categories) != 1 {
		t.Fatalf("expected a single category, got %v", doc.CategoryNames())
	}
	cat, ok := doc.Category(composed)
	if !ok || len(cat.Assets) != 2 {
		t.Fatalf("expected both assets under one category, got %+v", cat)
	}
	assertCounts(t, doc)
}
