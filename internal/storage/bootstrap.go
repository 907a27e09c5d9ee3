package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FolderState reports what Bootstrap found for one expected folder.
type FolderState string

const (
	FolderFound   FolderState = "found"
	FolderCreated FolderState = "created"
)

// FolderStatus is one row of Bootstrap output.
type FolderStatus struct {
	Name  string      `json:"name"`
	Path  string      `json:"path"`
	State FolderState `json:"state"`
}

// Bootstrap ensures every named subfolder exists under root, creating the
// missing ones. Root itself must already exist.
func Bootstrap(root string, subfolders []string) ([]FolderStatus, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", root)
	}

	statuses := make([]FolderStatus, 0, len(subfolders))
	for _, name := range subfolders {
		path := filepath.Join(root, name)
		status := FolderStatus{Name: name, Path: path, State: FolderFound}
		info, err := os.Stat(path)
		switch {
		case err == nil && info.IsDir():
		case err == nil:
			return statuses, fmt.Errorf("%s exists but is not a directory", path)
		case errors.Is(err, fs.ErrNotExist):
			if err := os.Mkdir(path, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
				return statuses, fmt.Errorf("create %s: %w", path, err)
			}
			status.State = FolderCreated
		default:
			return statuses, fmt.Errorf("stat %s: %w", path, err)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
