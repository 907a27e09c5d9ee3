package checksum

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFileKnownDigest(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.txt", []byte("hello world"))

	got, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	const want = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
}

func TestFileEmpty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.bin", nil)

	got, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
}

func TestFileDeterministicAndSensitiveToOneByte(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte("0123456789abcdef"), 1000) // spans several chunks
	path := writeFile(t, dir, "kick.wav", data)

	first, err := File(path)
	if err != nil {
		t.Fatalf("first hash: %v", err)
	}
	second, err := File(path)
	if err != nil {
		t.Fatalf("second hash: %v", err)
	}
	if first != second {
		t.Fatalf("re-hash of unchanged file differs: %s vs %s", first, second)
	}

	flipped := append([]byte(nil), data...)
	flipped[ChunkSize+7] ^= 0x01
	writeFile(t, dir, "kick.wav", flipped)

	third, err := File(path)
	if err != nil {
		t.Fatalf("third hash: %v", err)
	}
	if third == first {
		t.Fatal("digest unchanged after flipping one byte")
	}
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope.wav"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

type failingReader struct {
	remaining int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, errors.New("device went away")
	}
	n := min(len(p), r.remaining)
	r.remaining -= n
	return n, nil
}

func TestReaderPropagatesMidStreamError(t *testing.T) {
	sum, err := Reader(&failingReader{remaining: ChunkSize * 2})
	if err == nil {
		t.Fatal("expected error")
	}
	if sum != "" {
		t.Fatalf("partial digest returned: %q", sum)
	}
}

func TestReaderMatchesFile(t *testing.T) {
	data := []byte(strings.Repeat("x", ChunkSize+1))
	path := writeFile(t, t.TempDir(), "x.bin", data)

	fromFile, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	fromReader, err := Reader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	if fromFile != fromReader {
		t.Fatalf("File and Reader disagree: %s vs %s", fromFile, fromReader)
	}
}

func TestEqualAndValid(t *testing.T) {
	lower := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if !Equal(lower, strings.ToUpper(lower)) {
		t.Error("Equal should ignore case")
	}
	if Equal(lower, lower[:63]+"0") {
		t.Error("Equal matched different digests")
	}

	cases := map[string]bool{
		lower:            true,
		" " + lower:      true,
		lower[:10]:       false,
		"":               false,
		lower[:63] + "z": false,
	}
	for value, want := range cases {
		if got := Valid(value); got != want {
			t.Errorf("Valid(%q) = %v, want %v", value, got, want)
		}
	}
}
