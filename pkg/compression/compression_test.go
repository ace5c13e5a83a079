package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, typ Type, level Level, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, typ, level)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	original := []byte(strings.Repeat("3 2 4 3 1 5 3 2\n", 200))

	for _, typ := range []Type{TypeNone, TypeGzip, TypeZstd} {
		for _, level := range []Level{LevelFastest, LevelDefault, LevelBest} {
			t.Run(fmt.Sprintf("%s/level-%d", typ, level), func(t *testing.T) {
				compressed := compress(t, typ, level, original)
				assert.Equal(t, typ, DetectType(compressed))
				if typ != TypeNone {
					assert.Less(t, len(compressed), len(original))
				}

				r, err := NewReader(bytes.NewReader(compressed))
				require.NoError(t, err)
				defer r.Close()

				got, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, original, got)
			})
		}
	}
}

func TestFromPath(t *testing.T) {
	tests := []struct {
		path     string
		wantType Type
		wantBase string
	}{
		{"results.json", TypeNone, "results.json"},
		{"results.json.gz", TypeGzip, "results.json"},
		{"out/results.yaml.zst", TypeZstd, "out/results.yaml"},
		{"RESULTS.YAML.GZ", TypeGzip, "RESULTS.YAML"},
		{"counts", TypeNone, "counts"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			typ, base := FromPath(tt.path)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantBase, base)
		})
	}
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, TypeNone, DetectType(nil))
	assert.Equal(t, TypeNone, DetectType([]byte("1 2 3")))
	assert.Equal(t, TypeGzip, DetectType([]byte{0x1f, 0x8b, 0x08}))
	assert.Equal(t, TypeZstd, DetectType([]byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}))
}

func TestNewReader_ShortInput(t *testing.T) {
	r, err := NewReader(strings.NewReader("7"))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "7", string(got))
}

func TestNewWriter_UnknownType(t *testing.T) {
	_, err := NewWriter(io.Discard, Type(42), LevelDefault)
	assert.Error(t, err)
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "gzip", TypeGzip.String())
	assert.Equal(t, "zstd", TypeZstd.String())
	assert.Equal(t, "none", TypeNone.String())
	assert.Equal(t, ".zst", TypeZstd.Extension())
	assert.Empty(t, TypeNone.Extension())
}
