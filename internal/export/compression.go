package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the archive codec. It implements pflag.Value so it
// can back a command-line flag directly.
type Compression string

const (
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
	CompressionNone Compression = "none"
)

// ParseCompression validates a codec name.
func ParseCompression(value string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(value))); c {
	case CompressionZstd, CompressionLZ4, CompressionNone:
		return c, nil
	case "":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want zstd, lz4 or none)", value)
	}
}

func (c *Compression) String() string {
	if c == nil || *c == "" {
		return string(CompressionZstd)
	}
	return string(*c)
}

func (c *Compression) Set(value string) error {
	parsed, err := ParseCompression(value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Compression) Type() string {
	return "compression"
}

// Extension returns the archive file suffix.
func (c Compression) Extension() string {
	switch c {
	case CompressionLZ4:
		return ".tar.lz4"
	case CompressionNone:
		return ".tar"
	default:
		return ".tar.zst"
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (c Compression) writer(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionNone:
		return nopWriteCloser{w}, nil
	default:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	}
}

func (c Compression) reader(r io.Reader) (io.Reader, func(), error) {
	switch c {
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CompressionNone:
		return r, func() {}, nil
	default:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd reader: %w", err)
		}
		return dec, dec.Close, nil
	}
}

// compressionForPath infers the codec from an archive name.
func compressionForPath(name string) Compression {
	switch {
	case strings.HasSuffix(name, ".tar.lz4"):
		return CompressionLZ4
	case strings.HasSuffix(name, ".tar.zst"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}
