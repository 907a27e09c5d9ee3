// Package fileutil holds the atomic write and copy helpers shared by the
// manifest store and asset registration.
package fileutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to a temp file beside path, fsyncs it, and renames
// it over path. Readers never observe a truncated file. The parent directory
// is created when missing.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	_, err := replace(path, mode, func(w io.Writer) (int64, error) {
		return io.Copy(w, bytes.NewReader(data))
	})
	return err
}

// CopyAtomic streams src into a temp file inside dst's directory and renames
// it over dst, returning the number of bytes copied. On failure dst is left
// untouched and the temp file is removed.
func CopyAtomic(src, dst string, mode os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	return replace(dst, mode, func(w io.Writer) (int64, error) {
		return io.Copy(w, in)
	})
}

// TempPattern returns the os.CreateTemp pattern used for path. Temp files
// start with a dot so directory listings can skip them.
func TempPattern(path string) string {
	return "." + filepath.Base(path) + ".*.tmp"
}

func replace(path string, mode os.FileMode, fill func(io.Writer) (int64, error)) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, TempPattern(path))
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	written, err := fill(tmp)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return 0, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return written, nil
}
