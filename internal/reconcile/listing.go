package reconcile

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"assetsync/internal/logging"
	"assetsync/internal/manifest"
)

// Listing maps the NFC form of each file name found in a category folder to
// the name as it appears on disk.
type Listing map[string]string

// Names returns the normalized names in lexical order.
func (l Listing) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Diff partitions tracked and on-disk names for one category. All names are
// in NFC form and every slice is sorted.
type Diff struct {
	Category  string   `json:"category"`
	Untracked []string `json:"untracked"`
	Missing   []string `json:"missing"`
	Common    []string `json:"common"`
}

// Listing returns the regular files directly under the category folder. A
// missing folder yields an empty listing. Subdirectories, symlinks that do not
// point at regular files, and ignored names are skipped.
func (e *Engine) Listing(category string) (Listing, error) {
	category, err := cleanName("category", category)
	if err != nil {
		return nil, err
	}
	return e.listing(category)
}

func (e *Engine) listing(category string) (Listing, error) {
	dir := e.categoryDir(category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return Listing{}, nil
		}
		if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
			return Listing{}, nil
		}
		return nil, wrap(ErrIO, "list category", category, err)
	}

	listing := make(Listing, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if e.ignored(name) || !e.isRegular(dir, entry) {
			continue
		}
		key := manifest.NormalizeName(name)
		if existing, ok := listing[key]; ok {
			logging.WarnWithContext(e.logger, "duplicate file name after normalization", "listing_name_collision",
				logging.String(logging.FieldCategory, category),
				logging.String("kept", existing),
				logging.String("skipped", name),
				logging.String(logging.FieldImpact, "only one of the files is tracked"),
				logging.String(logging.FieldErrorHint, "rename one of the files in the synced folder"),
			)
			continue
		}
		listing[key] = name
	}
	return listing, nil
}

func (e *Engine) isRegular(dir string, entry fs.DirEntry) bool {
	mode := entry.Type()
	if mode.IsRegular() {
		return true
	}
	if mode&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

func (e *Engine) ignored(name string) bool {
	for _, pattern := range e.ignore {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Categories returns the non-hidden, non-ignored subdirectories of the
// storage root in lexical order.
func (e *Engine) Categories() ([]string, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		return nil, wrap(ErrIO, "list storage root", e.root, err)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || e.ignored(name) {
			continue
		}
		if !entry.IsDir() {
			if entry.Type()&fs.ModeSymlink == 0 {
				continue
			}
			info, err := os.Stat(filepath.Join(e.root, name))
			if err != nil || !info.IsDir() {
				continue
			}
		}
		names = append(names, manifest.NormalizeName(name))
	}
	sort.Strings(names)
	return names, nil
}

// Diff compares the manifest's records for category with the folder listing.
func (e *Engine) Diff(category string) (*Diff, error) {
	category, err := cleanName("category", category)
	if err != nil {
		return nil, err
	}
	diff, _, _, err := e.diff(category)
	return diff, err
}

// tracked maps NFC names to manifest keys for one category.
func (e *Engine) tracked(category string) map[string]string {
	out := map[string]string{}
	cat, ok := e.doc.Category(category)
	if !ok {
		return out
	}
	for key := range cat.Assets {
		out[manifest.NormalizeName(key)] = key
	}
	return out
}

func (e *Engine) diff(category string) (*Diff, map[string]string, Listing, error) {
	listing, err := e.listing(category)
	if err != nil {
		return nil, nil, nil, err
	}
	tracked := e.tracked(category)

	diff := &Diff{Category: category, Untracked: []string{}, Missing: []string{}, Common: []string{}}
	for _, name := range listing.Names() {
		if _, ok := tracked[name]; ok {
			diff.Common = append(diff.Common, name)
		} else {
			diff.Untracked = append(diff.Untracked, name)
		}
	}
	for name := range tracked {
		if _, ok := listing[name]; !ok {
			diff.Missing = append(diff.Missing, name)
		}
	}
	sort.Strings(diff.Missing)
	return diff, tracked, listing, nil
}
