package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeManifest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Manifest) == "" {
		c.Paths.Manifest = defaultManifestPath
	}
	if c.Paths.Manifest, err = expandPath(strings.TrimSpace(c.Paths.Manifest)); err != nil {
		return fmt.Errorf("paths.manifest: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	var err error
	c.Storage.FolderName = strings.TrimSpace(c.Storage.FolderName)
	if c.Storage.FolderName == "" {
		c.Storage.FolderName = defaultFolderName
	}
	c.Storage.BasePath = strings.TrimSpace(c.Storage.BasePath)
	if c.Storage.BasePath == "" {
		if value, ok := os.LookupEnv(StorageRootEnv); ok {
			c.Storage.BasePath = strings.TrimSpace(value)
		}
	}
	if c.Storage.BasePath, err = expandPath(c.Storage.BasePath); err != nil {
		return fmt.Errorf("storage.base_path: %w", err)
	}
	if c.Storage.AlternativePaths, err = expandPaths(c.Storage.AlternativePaths); err != nil {
		return fmt.Errorf("storage.alternative_paths: %w", err)
	}
	if c.Storage.SearchRoots == nil {
		c.Storage.SearchRoots = defaultSearchRoots()
	}
	if c.Storage.SearchRoots, err = expandPaths(c.Storage.SearchRoots); err != nil {
		return fmt.Errorf("storage.search_roots: %w", err)
	}
	if c.Storage.Subfolders == nil {
		c.Storage.Subfolders = defaultSubfolders()
	}
	c.Storage.Subfolders = dedupeTrimmed(c.Storage.Subfolders)
	return nil
}

func (c *Config) normalizeScan() {
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaultScanWorkers
	}
	if c.Scan.Ignore == nil {
		c.Scan.Ignore = DefaultIgnore()
	}
	c.Scan.Ignore = dedupeTrimmed(c.Scan.Ignore)
}

func (c *Config) normalizeManifest() {
	c.Manifest.Version = strings.TrimSpace(c.Manifest.Version)
	if c.Manifest.Version == "" {
		c.Manifest.Version = defaultManifestVersion
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	}
}

func expandPaths(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range dedupeTrimmed(values) {
		expanded, err := expandPath(value)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

// dedupeTrimmed trims entries, drops blanks, and keeps the first occurrence of
// each value. Entries are not trimmed of control characters such as the
// carriage return in "Icon\r".
func dedupeTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.Trim(value, " \t")
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
