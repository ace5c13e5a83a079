// Package batch solves many independent HPDI problems concurrently.
package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poisson-gamma/pkg/compression"
	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/model"
)

// File is the on-disk layout of a batch. Coverage is the default for jobs
// that do not set their own.
type File struct {
	Coverage float64          `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	Jobs     []model.BatchJob `json:"jobs" yaml:"jobs"`
}

// LoadFile reads a batch from path. Files ending in .json (optionally
// followed by .gz or .zst) are parsed as JSON, everything else as YAML.
// Compressed input is detected from its content.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to open batch file", err)
	}
	defer f.Close()

	r, err := compression.NewReader(f)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to read batch file", err)
	}
	defer r.Close()

	_, base := compression.FromPath(path)
	format := "yaml"
	if strings.EqualFold(filepath.Ext(base), ".json") {
		format = "json"
	}
	return Parse(r, format)
}

// Parse decodes a batch in the given format ("json" or "yaml"). Unknown
// fields are rejected.
func Parse(r io.Reader, format string) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to read batch", err)
	}

	var file File
	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&file)
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&file)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidInput, "unsupported batch format %q", format)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to decode batch", err)
	}
	if len(file.Jobs) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "batch contains no jobs")
	}
	return &file, nil
}

// Resolved returns the jobs with the file-level coverage filled in.
func (f *File) Resolved(fallback float64) []model.BatchJob {
	def := f.Coverage
	if def == 0 {
		def = fallback
	}
	jobs := make([]model.BatchJob, len(f.Jobs))
	for i, j := range f.Jobs {
		if j.Coverage == 0 {
			j.Coverage = def
		}
		jobs[i] = j
	}
	return jobs
}
