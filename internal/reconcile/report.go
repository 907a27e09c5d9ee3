package reconcile

import (
	"sort"

	"assetsync/internal/manifest"
)

// FindingKind classifies a verification finding.
type FindingKind string

const (
	SizeMismatch     FindingKind = "size_mismatch"
	ChecksumMismatch FindingKind = "checksum_mismatch"
)

// Finding records one disagreement between a manifest record and the file on disk.
type Finding struct {
	Kind             FindingKind `json:"kind"`
	Category         string      `json:"category"`
	Filename         string      `json:"filename"`
	ExpectedSize     int64       `json:"expected_size"`
	ActualSize       int64       `json:"actual_size"`
	ExpectedChecksum string      `json:"expected_checksum,omitempty"`
	ActualChecksum   string      `json:"actual_checksum,omitempty"`
}

// Path returns the finding's category/filename.
func (f Finding) Path() string {
	return manifest.RelativePath(f.Category, f.Filename)
}

// AssetRef names one asset.
type AssetRef struct {
	Category string `json:"category"`
	Filename string `json:"filename"`
}

// Path returns the asset's category/filename.
func (r AssetRef) Path() string {
	return manifest.RelativePath(r.Category, r.Filename)
}

// Report aggregates verification results. Missing assets were not compared.
// SizeOnly lists checked assets whose records carry no checksum.
type Report struct {
	Categories []string   `json:"categories"`
	Checked    int        `json:"checked"`
	Findings   []Finding  `json:"findings"`
	Missing    []AssetRef `json:"missing"`
	SizeOnly   []AssetRef `json:"size_only,omitempty"`
}

func newReport(categories ...string) *Report {
	return &Report{
		Categories: append([]string{}, categories...),
		Findings:   []Finding{},
		Missing:    []AssetRef{},
	}
}

// OK reports whether nothing is mismatched or missing.
func (r *Report) OK() bool {
	return r != nil && len(r.Findings) == 0 && len(r.Missing) == 0
}

// HasMismatches reports whether any size or checksum finding was recorded.
func (r *Report) HasMismatches() bool {
	return r != nil && len(r.Findings) > 0
}

// Merge appends other's results to r.
func (r *Report) Merge(other *Report) {
	if r == nil || other == nil {
		return
	}
	r.Categories = append(r.Categories, other.Categories...)
	r.Checked += other.Checked
	r.Findings = append(r.Findings, other.Findings...)
	r.Missing = append(r.Missing, other.Missing...)
	r.SizeOnly = append(r.SizeOnly, other.SizeOnly...)
}

// Counts returns the number of findings per kind.
func (r *Report) Counts() map[FindingKind]int {
	counts := map[FindingKind]int{}
	if r == nil {
		return counts
	}
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	return counts
}

func (r *Report) sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Kind > b.Kind
	})
	byPath := func(refs []AssetRef) {
		sort.SliceStable(refs, func(i, j int) bool {
			if refs[i].Category != refs[j].Category {
				return refs[i].Category < refs[j].Category
			}
			return refs[i].Filename < refs[j].Filename
		})
	}
	byPath(r.Missing)
	byPath(r.SizeOnly)
}
