// Package compression wraps readers and writers with gzip or zstd, chosen
// from a file suffix when writing and from magic bytes when reading.
package compression

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Type represents the compression algorithm used.
type Type uint8

const (
	// TypeNone passes data through unchanged.
	TypeNone Type = iota
	// TypeGzip uses gzip compression (".gz").
	TypeGzip
	// TypeZstd uses zstd compression (".zst").
	TypeZstd
)

// String returns the algorithm name.
func (t Type) String() string {
	switch t {
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	default:
		return "none"
	}
}

// Extension returns the file suffix for t, including the dot.
func (t Type) Extension() string {
	switch t {
	case TypeGzip:
		return ".gz"
	case TypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// Level represents the compression level.
type Level int

const (
	// LevelFastest prioritizes speed over compression ratio
	LevelFastest Level = 1
	// LevelDefault balances speed and compression ratio
	LevelDefault Level = 3
	// LevelBest prioritizes compression ratio over speed
	LevelBest Level = 9
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// FromPath returns the compression implied by the suffix of path and the
// path with that suffix removed, e.g. "out.json.zst" -> (TypeZstd, "out.json").
func FromPath(path string) (Type, string) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range []Type{TypeGzip, TypeZstd} {
		if ext == t.Extension() {
			return t, path[:len(path)-len(ext)]
		}
	}
	return TypeNone, path
}

// DetectType detects the compression type from magic bytes.
func DetectType(head []byte) Type {
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return TypeZstd
	case bytes.HasPrefix(head, gzipMagic):
		return TypeGzip
	default:
		return TypeNone
	}
}

// NewWriter wraps w so that everything written is compressed with t.
// Close flushes the compressor but does not close w.
func NewWriter(w io.Writer, t Type, level Level) (io.WriteCloser, error) {
	switch t {
	case TypeNone:
		return nopWriteCloser{w}, nil
	case TypeGzip:
		gzipLevel := gzip.DefaultCompression
		switch level {
		case LevelFastest:
			gzipLevel = gzip.BestSpeed
		case LevelBest:
			gzipLevel = gzip.BestCompression
		}
		zw, err := gzip.NewWriterLevel(w, gzipLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		return zw, nil
	case TypeZstd:
		zstdLevel := zstd.SpeedDefault
		switch level {
		case LevelFastest:
			zstdLevel = zstd.SpeedFastest
		case LevelBest:
			zstdLevel = zstd.SpeedBestCompression
		}
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// NewReader sniffs the first bytes of r and transparently decompresses
// gzip or zstd input. Uncompressed input is returned as is. Close releases
// the decoder but does not close r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	// Short input is fine: Peek returns what there is.
	head, _ := br.Peek(len(zstdMagic))

	switch DetectType(head) {
	case TypeGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, nil
	case TypeZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
