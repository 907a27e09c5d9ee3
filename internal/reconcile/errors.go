package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"assetsync/internal/manifest"
)

var (
	// ErrStorageUnavailable marks a storage root that could not be resolved.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrSourceNotFound marks a register source that is missing or not a regular file.
	ErrSourceNotFound = errors.New("source not found")
	// ErrIO marks a copy, read, hash, or persist failure that aborted an operation.
	ErrIO = errors.New("i/o error")
	// ErrInvalidName marks a category or filename that is not a single path element.
	ErrInvalidName = manifest.ErrInvalidName
)

// wrap tags err with marker and an operation/subject prefix so callers can
// classify failures with errors.Is.
func wrap(marker error, operation, subject string, err error) error {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if subject = strings.TrimSpace(subject); subject != "" {
		parts = append(parts, subject)
	}
	detail := strings.Join(parts, ": ")
	if detail == "" {
		detail = "reconcile failure"
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}
