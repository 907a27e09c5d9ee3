package reconcile

import (
	"io"
	"os"

	"assetsync/internal/checksum"
)

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// digestFile hashes path and returns the number of bytes hashed with the
// digest, so size and checksum always describe the same read.
func digestFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	counter := &countingReader{r: f}
	sum, err := checksum.Reader(counter)
	if err != nil {
		return 0, "", err
	}
	return counter.n, sum, nil
}
