package manifest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultVersion is the schema version written into new manifests.
	DefaultVersion = "1.0"
	// DefaultStorageRootName names the logical synced folder when none is configured.
	DefaultStorageRootName = "AVMI-GVSC-Audio-Assets"
)

// Manifest is the persisted document describing every tracked asset.
type Manifest struct {
	Version         string               `yaml:"version" json:"version"`
	LastUpdated     Timestamp            `yaml:"last_updated" json:"last_updated"`
	StorageRootName string               `yaml:"storage_root_name" json:"storage_root_name"`
	Categories      map[string]*Category `yaml:"categories" json:"categories"`
}

// Category groups assets that share a subdirectory of the storage root.
type Category struct {
	Description string                 `yaml:"description" json:"description"`
	Count       int                    `yaml:"count" json:"count"`
	Assets      map[string]AssetRecord `yaml:"assets" json:"assets"`
}

// AssetRecord captures the expected state of a single asset file.
type AssetRecord struct {
	RelativePath string         `yaml:"relative_path" json:"relative_path"`
	SizeBytes    int64          `yaml:"size_bytes" json:"size_bytes"`
	SizeHuman    string         `yaml:"size_human" json:"size_human"`
	Checksum     string         `yaml:"checksum,omitempty" json:"checksum,omitempty"`
	Created      Timestamp      `yaml:"created" json:"created"`
	Metadata     map[string]any `yaml:"metadata" json:"metadata"`
}

// Default returns an empty manifest skeleton.
func Default(storageRootName, version string) *Manifest {
	if strings.TrimSpace(version) == "" {
		version = DefaultVersion
	}
	if strings.TrimSpace(storageRootName) == "" {
		storageRootName = DefaultStorageRootName
	}
	return &Manifest{
		Version:         version,
		LastUpdated:     Now(),
		StorageRootName: storageRootName,
		Categories:      map[string]*Category{},
	}
}

// NewCategory returns an empty category with the conventional description.
func NewCategory(name string) *Category {
	return &Category{
		Description: fmt.Sprintf("%s assets", name),
		Assets:      map[string]AssetRecord{},
	}
}

// NewRecord builds a record for category/filename with derived fields filled in.
func NewRecord(category, filename string, size int64, sum string, created time.Time, metadata map[string]any) AssetRecord {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return AssetRecord{
		RelativePath: RelativePath(category, filename),
		SizeBytes:    size,
		SizeHuman:    HumanSize(size),
		Checksum:     sum,
		Created:      Timestamp{Time: created.UTC()},
		Metadata:     metadata,
	}
}

// RelativePath joins a category and filename with a forward slash, the only
// separator ever persisted.
func RelativePath(category, filename string) string {
	return category + "/" + filename
}

// HumanSize renders a byte count for display. The value is derived and never
// read back as truth.
func HumanSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}

// Category returns the named category when present. A key stored in another
// Unicode normalization form of name also matches.
func (m *Manifest) Category(name string) (*Category, bool) {
	if m == nil || m.Categories == nil {
		return nil, false
	}
	if cat, ok := m.Categories[name]; ok {
		return cat, cat != nil
	}
	want := NormalizeName(name)
	for key, cat := range m.Categories {
		if cat != nil && NormalizeName(key) == want {
			return cat, true
		}
	}
	return nil, false
}

// EnsureCategory returns the named category, creating it when absent. The
// second return value reports whether the category was created.
func (m *Manifest) EnsureCategory(name string) (*Category, bool) {
	if cat, ok := m.Category(name); ok {
		if cat.Assets == nil {
			cat.Assets = map[string]AssetRecord{}
		}
		return cat, false
	}
	if m.Categories == nil {
		m.Categories = map[string]*Category{}
	}
	cat := NewCategory(name)
	m.Categories[name] = cat
	return cat, true
}

// Put stores record under category/filename, replacing any existing record,
// and recomputes the category count.
func (m *Manifest) Put(category, filename string, record AssetRecord) {
	cat, _ := m.EnsureCategory(category)
	cat.Assets[filename] = record
	cat.Count = len(cat.Assets)
}

// CategoryNames returns category names in lexical order.
func (m *Manifest) CategoryNames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Categories))
	for name := range m.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AssetCount returns the number of records across all categories.
func (m *Manifest) AssetCount() int {
	total := 0
	for _, cat := range m.Categories {
		if cat != nil {
			total += len(cat.Assets)
		}
	}
	return total
}

// RecomputeDerived refreshes count and size_human for every category and record.
func (m *Manifest) RecomputeDerived() {
	for _, cat := range m.Categories {
		if cat == nil {
			continue
		}
		if cat.Assets == nil {
			cat.Assets = map[string]AssetRecord{}
		}
		for name, record := range cat.Assets {
			record.SizeHuman = HumanSize(record.SizeBytes)
			if record.Metadata == nil {
				record.Metadata = map[string]any{}
			}
			cat.Assets[name] = record
		}
		cat.Count = len(cat.Assets)
	}
}

// AssetNames returns the filenames tracked in the category in lexical order.
func (c *Category) AssetNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Assets))
	for name := range c.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnmarshalYAML decodes the document and migrates keys written by the legacy
// Dropbox tooling.
func (m *Manifest) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest root must be a mapping, found %s", nodeKind(node))
	}
	type plain Manifest
	if err := node.Decode((*plain)(m)); err != nil {
		return err
	}
	var legacy struct {
		DropboxFolder string `yaml:"dropbox_folder"`
	}
	if err := node.Decode(&legacy); err != nil {
		return err
	}
	if strings.TrimSpace(m.StorageRootName) == "" {
		m.StorageRootName = legacy.DropboxFolder
	}
	if m.Categories == nil {
		m.Categories = map[string]*Category{}
	}
	for name, cat := range m.Categories {
		if cat == nil {
			m.Categories[name] = NewCategory(name)
			continue
		}
		if cat.Assets == nil {
			cat.Assets = map[string]AssetRecord{}
		}
	}
	return nil
}

// UnmarshalYAML decodes a record, accepting dropbox_path in place of relative_path.
func (r *AssetRecord) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("asset record must be a mapping, found %s", nodeKind(node))
	}
	type plain AssetRecord
	if err := node.Decode((*plain)(r)); err != nil {
		return err
	}
	var legacy struct {
		DropboxPath string `yaml:"dropbox_path"`
	}
	if err := node.Decode(&legacy); err != nil {
		return err
	}
	if strings.TrimSpace(r.RelativePath) == "" {
		r.RelativePath = legacy.DropboxPath
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	return nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	case yaml.DocumentNode:
		return "a document"
	default:
		return "an unknown node"
	}
}
