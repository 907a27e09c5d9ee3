// Package reconcile compares the manifest against the synced storage root and
// applies the two mutations that keep it current.
//
// An Engine is bound to one resolved storage root and one loaded manifest for
// the lifetime of a command. Read-only operations (Listing, Diff, Verify,
// Validate) return structured results and never touch the manifest. Scan and
// Register are the only writers: they compute every record first, apply the
// batch to the in-memory document, and persist through the store. A failed
// persist rolls the in-memory document back.
//
// The storage root changes underneath the engine while it runs. A file that
// disappears between listing and hashing is reported as missing (Verify) or
// vanished (Scan); any other I/O failure aborts the operation with ErrIO.
// Size and checksum mismatches are findings in a Report, never errors.
package reconcile
