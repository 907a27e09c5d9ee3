package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.Manifest) == "" {
		return errors.New("paths.manifest must be set")
	}
	if c.History.Enabled && strings.TrimSpace(c.Paths.HistoryDB) == "" {
		return errors.New("paths.history_db must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if err := validateFolderName("storage.folder_name", c.Storage.FolderName); err != nil {
		return err
	}
	for _, sub := range c.Storage.Subfolders {
		if err := validateFolderName("storage.subfolders", sub); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Workers < 1 || c.Scan.Workers > maxScanWorkers {
		return fmt.Errorf("scan.workers must be between 1 and %d", maxScanWorkers)
	}
	for _, pattern := range c.Scan.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("scan.ignore: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func validateFolderName(key, name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%s must not be empty", key)
	case name == "." || name == "..":
		return fmt.Errorf("%s must not be %q", key, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%s must be a single folder name, got %q", key, name)
	}
	return nil
}
