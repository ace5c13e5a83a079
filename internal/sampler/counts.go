package sampler

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/poisson-gamma/pkg/compression"
	apperrors "github.com/poisson-gamma/pkg/errors"
)

// ReadCounts parses non-negative integer counts separated by whitespace or
// commas. Text after '#' on a line is ignored.
func ReadCounts(r io.Reader) ([]int, error) {
	var counts []int
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		for _, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "line "+strconv.Itoa(line)+": invalid count "+strconv.Quote(f), err)
			}
			if n < 0 {
				return nil, apperrors.Newf(apperrors.CodeInvalidInput, "line %d: count %d is negative", line, n)
			}
			counts = append(counts, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to read counts", err)
	}
	return counts, nil
}

// ReadCountsFile reads counts from path; "-" reads standard input. Gzip
// and zstd input is decompressed transparently.
func ReadCountsFile(path string) ([]int, error) {
	var src io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to open counts file", err)
		}
		defer f.Close()
		src = f
	}

	r, err := compression.NewReader(src)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to read counts", err)
	}
	defer r.Close()
	return ReadCounts(r)
}
