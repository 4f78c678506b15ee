package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"

	"soundpack/internal/services"
)

// Algorithm names a supported 256-bit digest.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

const (
	// BlockSize is the read size used when streaming files and readers.
	BlockSize = 64 * 1024
	// ShortLength is the default number of hex characters kept by Short.
	ShortLength = 16
)

// Hasher computes content hashes with one algorithm and short length.
type Hasher struct {
	algorithm   Algorithm
	shortLength int
}

// New returns a Hasher for the named algorithm. An empty name selects
// SHA-256; shortLength <= 0 selects ShortLength.
func New(algorithm string, shortLength int) (*Hasher, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(algorithm)))
	switch alg {
	case "":
		alg = SHA256
	case SHA256, BLAKE3:
	default:
		return nil, services.Wrap(services.ErrConfiguration, "hashing", "new", fmt.Sprintf("unsupported algorithm %q", algorithm), nil)
	}
	if shortLength <= 0 {
		shortLength = ShortLength
	}
	return &Hasher{algorithm: alg, shortLength: shortLength}, nil
}

// Default returns the SHA-256 hasher with 16 character short hashes.
func Default() *Hasher {
	return &Hasher{algorithm: SHA256, shortLength: ShortLength}
}

// Algorithm reports the digest in use.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

func (h *Hasher) digest() hash.Hash {
	if h.algorithm == BLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}

func (h *Hasher) finish(d hash.Hash, short bool) string {
	sum := hex.EncodeToString(d.Sum(nil))
	if short {
		return h.Short(sum)
	}
	return sum
}

// HashBytes digests data in BlockSize chunks.
func (h *Hasher) HashBytes(data []byte, short bool) string {
	d := h.digest()
	for start := 0; start < len(data); start += BlockSize {
		end := min(start+BlockSize, len(data))
		d.Write(data[start:end])
	}
	return h.finish(d, short)
}

// HashReader streams r through the digest in BlockSize reads so memory
// stays bounded regardless of input size.
func (h *Hasher) HashReader(r io.Reader, short bool) (string, error) {
	d := h.digest()
	buf := make([]byte, BlockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return h.finish(d, short), nil
}

// HashFile hashes the raw contents of path. A missing or unreadable file
// is an error wrapping the underlying fs error, never the empty-input hash.
func (h *Hasher) HashFile(path string, short bool) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.WrapIO("hashing", "hash file", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", services.WrapIO("hashing", "hash file", path, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "hashing", "hash file", path+" is a directory", nil)
	}

	sum, err := h.HashReader(file, short)
	if err != nil {
		return "", services.WrapIO("hashing", "hash file", path, err)
	}
	return sum, nil
}

// HashText hashes the UTF-8 bytes of s.
func (h *Hasher) HashText(s string, short bool) string {
	return h.HashBytes([]byte(s), short)
}

// HashStructured canonicalizes v and hashes the resulting text.
func (h *Hasher) HashStructured(v any, short bool) (string, error) {
	encoded, err := Canonicalize(v)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "hashing", "hash structured", "value cannot be canonicalized", err)
	}
	return h.HashBytes(encoded, short), nil
}

// Short truncates sum to the hasher's short length.
func (h *Hasher) Short(sum string) string {
	return Short(sum, h.shortLength)
}

// Short truncates sum to n hex characters. Values already shorter are
// returned unchanged.
func Short(sum string, n int) string {
	if n <= 0 || len(sum) <= n {
		return sum
	}
	return sum[:n]
}
