// Package logging assembles structured slog loggers and formatting helpers used
// across assetsync.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so engine code can tag log lines
// with the invocation's run id. The package also provides a no-op logger for
// tests and library code that is constructed without one.
package logging
