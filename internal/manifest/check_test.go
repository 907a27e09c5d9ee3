package manifest

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCheckCleanManifest(t *testing.T) {
	doc := Default("", "")
	doc.Put("samples", "kick.wav", NewRecord("samples", "kick.wav", 10, strings.Repeat("a", 64), time.Now(), nil))
	if problems := doc.Check(); len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
}

func TestCheckReportsStructuralProblems(t *testing.T) {
	doc := Default("", "")
	cat, _ := doc.EnsureCategory("samples")
	cat.Assets["kick.wav"] = AssetRecord{RelativePath: "samples/kick.wav", SizeBytes: -1, Checksum: "xyz"}
	cat.Assets["snare.wav"] = AssetRecord{RelativePath: "drums/snare.wav", SizeBytes: 1, Checksum: strings.Repeat("b", 64)}
	cat.Assets["hat.wav"] = AssetRecord{RelativePath: `C:\assets\samples\hat.wav`, SizeBytes: 1}
	cat.Count = 1

	kinds := map[ProblemKind]int{}
	for _, problem := range doc.Check() {
		kinds[problem.Kind]++
	}
	for _, want := range []ProblemKind{
		ProblemCountMismatch,
		ProblemNegativeSize,
		ProblemMalformedSum,
		ProblemPathMismatch,
		ProblemAbsolutePath,
		ProblemMissingChecksum,
	} {
		if kinds[want] != 1 {
			t.Fatalf("expected one %s problem, got %v", want, kinds)
		}
	}
}

func TestCheckFlagsDecomposedNames(t *testing.T) {
	decomposed := "cafe\u0301.wav"
	doc := Default("", "")
	doc.Put("samples", decomposed, NewRecord("samples", decomposed, 1, strings.Repeat("c", 64), time.Now(), nil))

	problems := doc.Check()
	if len(problems) != 1 || problems[0].Kind != ProblemDenormalizedName {
		t.Fatalf("expected denormalized name problem, got %v", problems)
	}
	if NormalizeName(decomposed) != "caf\u00e9.wav" {
		t.Fatalf("unexpected NFC form %q", NormalizeName(decomposed))
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"kick.wav", "Take 01 (final).wav", ".hidden", "café"}
	for _, name := range valid {
		if err := ValidateName("filename", name); err != nil {
			t.Fatalf("ValidateName(%q): %v", name, err)
		}
	}
	invalid := []string{"", "  ", ".", "..", "a/b.wav", `a\b.wav`, "bad\x00name"}
	for _, name := range invalid {
		if err := ValidateName("filename", name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}
