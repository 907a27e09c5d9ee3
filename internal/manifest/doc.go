// Package manifest owns the declarative asset manifest: its document model,
// YAML persistence, and structural checks.
//
// The manifest is the source of truth for which assets exist, where they live
// relative to the synced storage root, and which size and checksum they are
// expected to have. It never records absolute paths so the same document works
// on every machine regardless of where the sync client mounts the folder.
//
// Store.Load distinguishes an absent document (a fresh default manifest is
// returned) from a corrupt one (ErrCorrupt is returned and nothing is
// overwritten). Store.Save stamps last_updated, recomputes derived fields such
// as count and size_human, and replaces the file atomically via a temp file
// and rename.
package manifest
