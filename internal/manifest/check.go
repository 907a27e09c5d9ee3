package manifest

import (
	"fmt"
	"path"
	"strings"

	"assetsync/internal/checksum"
)

// ProblemKind classifies a structural issue in the manifest document.
type ProblemKind string

const (
	ProblemCountMismatch    ProblemKind = "count_mismatch"
	ProblemPathMismatch     ProblemKind = "path_mismatch"
	ProblemAbsolutePath     ProblemKind = "absolute_path"
	ProblemNegativeSize     ProblemKind = "negative_size"
	ProblemMalformedSum     ProblemKind = "malformed_checksum"
	ProblemMissingChecksum  ProblemKind = "missing_checksum"
	ProblemInvalidName      ProblemKind = "invalid_name"
	ProblemMissingVersion   ProblemKind = "missing_version"
	ProblemDenormalizedName ProblemKind = "denormalized_name"
)

// Problem is one structural finding from Check.
type Problem struct {
	Kind     ProblemKind `json:"kind"`
	Category string      `json:"category,omitempty"`
	Filename string      `json:"filename,omitempty"`
	Detail   string      `json:"detail"`
}

func (p Problem) String() string {
	subject := p.Category
	if p.Filename != "" {
		subject = RelativePath(p.Category, p.Filename)
	}
	if subject == "" {
		return fmt.Sprintf("%s: %s", p.Kind, p.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", p.Kind, subject, p.Detail)
}

// Check inspects the document as loaded, before derived fields are refreshed,
// and reports anything a save would silently rewrite or that breaks
// relocatability. Missing checksums are reported because such records can
// only be size-checked.
func (m *Manifest) Check() []Problem {
	var problems []Problem
	if strings.TrimSpace(m.Version) == "" {
		problems = append(problems, Problem{Kind: ProblemMissingVersion, Detail: "version is empty"})
	}
	for _, name := range m.CategoryNames() {
		cat := m.Categories[name]
		if err := ValidateName("category", name); err != nil {
			problems = append(problems, Problem{Kind: ProblemInvalidName, Category: name, Detail: err.Error()})
		} else if NormalizeName(name) != name {
			problems = append(problems, Problem{Kind: ProblemDenormalizedName, Category: name, Detail: "category name is not NFC"})
		}
		if cat.Count != len(cat.Assets) {
			problems = append(problems, Problem{
				Kind:     ProblemCountMismatch,
				Category: name,
				Detail:   fmt.Sprintf("count is %d but %d assets are listed", cat.Count, len(cat.Assets)),
			})
		}
		for _, filename := range cat.AssetNames() {
			problems = append(problems, checkRecord(name, filename, cat.Assets[filename])...)
		}
	}
	return problems
}

func checkRecord(category, filename string, record AssetRecord) []Problem {
	var problems []Problem
	add := func(kind ProblemKind, detail string) {
		problems = append(problems, Problem{Kind: kind, Category: category, Filename: filename, Detail: detail})
	}
	if err := ValidateName("filename", filename); err != nil {
		add(ProblemInvalidName, err.Error())
	} else if NormalizeName(filename) != filename {
		add(ProblemDenormalizedName, "filename is not NFC")
	}
	rel := record.RelativePath
	switch {
	case path.IsAbs(rel) || strings.Contains(rel, `\`) || (len(rel) > 1 && rel[1] == ':'):
		add(ProblemAbsolutePath, fmt.Sprintf("relative_path %q is not a portable relative path", rel))
	case rel != RelativePath(category, filename):
		add(ProblemPathMismatch, fmt.Sprintf("relative_path %q, expected %q", rel, RelativePath(category, filename)))
	}
	if record.SizeBytes < 0 {
		add(ProblemNegativeSize, fmt.Sprintf("size_bytes is %d", record.SizeBytes))
	}
	switch {
	case strings.TrimSpace(record.Checksum) == "":
		add(ProblemMissingChecksum, "no checksum recorded; only size can be verified")
	case !checksum.Valid(record.Checksum):
		add(ProblemMalformedSum, fmt.Sprintf("checksum %q is not a SHA-256 hex digest", record.Checksum))
	}
	return problems
}
