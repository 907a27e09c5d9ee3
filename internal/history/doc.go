// Package history keeps an append-only audit trail of manifest operations in
// SQLite. Each CLI invocation tags its events with a run id so that related
// entries can be grouped when listed.
package history
