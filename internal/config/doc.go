// Package config loads, normalizes, and validates assetsync configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the ASSETSYNC_STORAGE_ROOT environment fallback. The
// Config type gathers every knob the CLI needs so the manifest location,
// storage root candidates, and scan settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
