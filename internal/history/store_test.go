package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := store.Record(ctx,
		Event{RunID: "run-a", Action: ActionAdopt, Category: "samples", Filename: "kick.wav", SizeBytes: 1024, Checksum: "abc", At: base},
		Event{RunID: "run-a", Action: ActionAdopt, Category: "samples", Filename: "snare.wav", SizeBytes: 2048, At: base.Add(time.Second)},
	)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := store.Record(ctx, Event{RunID: "run-b", Action: ActionValidate, Detail: "checked=2 mismatches=0 missing=0", At: base.Add(time.Minute)}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	events, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Action != ActionValidate || events[0].RunID != "run-b" {
		t.Fatalf("expected newest event first, got %+v", events[0])
	}
	last := events[2]
	if last.Filename != "kick.wav" || last.SizeBytes != 1024 || last.Checksum != "abc" || !last.At.Equal(base) {
		t.Fatalf("unexpected oldest event %+v", last)
	}

	limited, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(limited) != 2 || limited[1].Filename != "snare.wav" {
		t.Fatalf("unexpected limited events %+v", limited)
	}
}

func TestRecordStampsMissingTime(t *testing.T) {
	store := openTestStore(t)
	fixed := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	if err := store.Record(context.Background(), Event{RunID: "r", Action: ActionRegister, Category: "presets", Filename: "lead.fxp"}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	events, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(events) != 1 || !events[0].At.Equal(fixed) {
		t.Fatalf("expected stamped time %v, got %+v", fixed, events)
	}
}

func TestRecordNothingIsNoop(t *testing.T) {
	store := openTestStore(t)
	if err := store.Record(context.Background()); err != nil {
		t.Fatalf("Record with no events returned error: %v", err)
	}
	var nilStore *Store
	if err := nilStore.Record(context.Background(), Event{RunID: "r"}); err != nil {
		t.Fatalf("nil store Record returned error: %v", err)
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Record(context.Background(), Event{RunID: "r", Action: ActionRegister, Filename: "a.wav"}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	events, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(events) != 1 || events[0].Filename != "a.wav" {
		t.Fatalf("unexpected events after reopen %+v", events)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = ?", schemaVersion+1); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if isSQLiteBusy(nil) {
		t.Fatal("nil error is not busy")
	}
	if !isSQLiteBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy message to be detected")
	}
	if isSQLiteBusy(errors.New("no such table")) {
		t.Fatal("unrelated error reported as busy")
	}
}
