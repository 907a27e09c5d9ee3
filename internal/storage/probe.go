package storage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Volume describes the filesystem holding the storage root.
type Volume struct {
	Path       string `json:"path"`
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
	Readable   bool   `json:"readable"`
	Writable   bool   `json:"writable"`
}

// Probe reports capacity and access for root.
func Probe(root string) (Volume, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(root, &stat); err != nil {
		return Volume{}, fmt.Errorf("statfs %s: %w", root, err)
	}
	bsize := uint64(stat.Bsize)
	return Volume{
		Path:       root,
		TotalBytes: stat.Blocks * bsize,
		FreeBytes:  stat.Bavail * bsize,
		Readable:   unix.Access(root, unix.R_OK|unix.X_OK) == nil,
		Writable:   unix.Access(root, unix.W_OK) == nil,
	}, nil
}
