// Package writer encodes reports and batch results to JSON or YAML.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poisson-gamma/pkg/compression"
	apperrors "github.com/poisson-gamma/pkg/errors"
)

// Writer encodes values of type T.
type Writer[T any] interface {
	Write(data T, w io.Writer) error
	WriteToFile(data T, path string) error
}

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent is the per-level indentation; empty means compact output.
	Indent string
}

// NewJSONWriter creates a JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a JSON writer with two-space indentation.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write encodes data to w.
func (jw *JSONWriter[T]) Write(data T, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if jw.Indent != "" {
		encoder.SetIndent("", jw.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile encodes data to path, creating parent directories.
func (jw *JSONWriter[T]) WriteToFile(data T, path string) error {
	return writeFile(path, func(w io.Writer) error { return jw.Write(data, w) })
}

// YAMLWriter writes data as YAML.
type YAMLWriter[T any] struct {
	Indent int
}

// NewYAMLWriter creates a YAML writer with two-space indentation.
func NewYAMLWriter[T any]() *YAMLWriter[T] {
	return &YAMLWriter[T]{Indent: 2}
}

// Write encodes data to w.
func (yw *YAMLWriter[T]) Write(data T, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yw.Indent)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// WriteToFile encodes data to path, creating parent directories.
func (yw *YAMLWriter[T]) WriteToFile(data T, path string) error {
	return writeFile(path, func(w io.Writer) error { return yw.Write(data, w) })
}

// ForPath picks a writer from the file extension: .yaml and .yml select
// YAML, anything else pretty JSON. A trailing .gz or .zst is ignored here;
// WriteToFile compresses accordingly.
func ForPath[T any](path string) Writer[T] {
	_, base := compression.FromPath(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml":
		return NewYAMLWriter[T]()
	default:
		return NewPrettyJSONWriter[T]()
	}
}

func writeFile(path string, encode func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	typ, _ := compression.FromPath(path)
	cw, err := compression.NewWriter(file, typ, compression.LevelDefault)
	if err != nil {
		return err
	}
	if err := encode(cw); err != nil {
		cw.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return file.Close()
}
