package manifest

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidName marks a category or filename that is not a single path element.
var ErrInvalidName = errors.New("invalid name")

// NormalizeName returns the NFC form of name. Manifest keys are always stored
// in this form; sync clients may surface the decomposed spelling on disk.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// ValidateName checks that name can be used as a category or filename.
func ValidateName(kind, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidName, kind)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %s %q", ErrInvalidName, kind, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %s %q contains a path separator", ErrInvalidName, kind, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %s contains a NUL byte", ErrInvalidName, kind)
	}
	return nil
}
