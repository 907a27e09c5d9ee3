package storage

import (
	"os"
	"strings"

	"assetsync/internal/config"
)

// Locator resolves the directory that holds asset content.
type Locator interface {
	// Resolve returns the storage root and whether one was found.
	Resolve() (string, bool)
}

// CandidateLocator returns the first candidate that exists and is a directory.
type CandidateLocator struct {
	Candidates []string
}

// NewLocator builds a CandidateLocator from the configured base path,
// alternative paths, and search roots.
func NewLocator(cfg *config.Config) *CandidateLocator {
	if cfg == nil {
		return &CandidateLocator{}
	}
	return &CandidateLocator{Candidates: cfg.StorageCandidates()}
}

// Resolve implements Locator. Candidates are re-checked on every call.
func (l *CandidateLocator) Resolve() (string, bool) {
	if l == nil {
		return "", false
	}
	for _, candidate := range l.Candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// StaticLocator always resolves to a fixed root, or to nothing when empty.
type StaticLocator string

// Resolve implements Locator.
func (s StaticLocator) Resolve() (string, bool) {
	root := strings.TrimSpace(string(s))
	return root, root != ""
}
