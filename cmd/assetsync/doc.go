// Package main hosts the assetsync CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, the storage root, and the
// manifest once per invocation, then hands a reconcile.Engine to each
// subcommand. Commands only render results; reconciliation lives in
// internal/reconcile so it can be exercised without a terminal.
package main
