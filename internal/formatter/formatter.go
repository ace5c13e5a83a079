// Package formatter renders analysis reports and batch results for the
// terminal or for machine consumption.
package formatter

import (
	"io"
	"sort"
	"strings"

	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/model"
)

// Formatter renders results in one output format.
type Formatter interface {
	// Name returns the format name used in configuration.
	Name() string

	FormatReport(report *model.Report, w io.Writer) error
	FormatSummary(summary *model.Summary, w io.Writer) error
	FormatBatch(batch *model.BatchReport, w io.Writer) error
}

// Registry manages formatter instances by name.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates a registry with the table, json and yaml formatters.
func NewRegistry(useColor bool) *Registry {
	r := &Registry{
		formatters: make(map[string]Formatter),
	}

	r.Register(NewTableFormatter(useColor))
	r.Register(NewJSONFormatter(true))
	r.Register(&YAMLFormatter{})

	return r
}

// Register registers a formatter under its name.
func (r *Registry) Register(f Formatter) {
	r.formatters[strings.ToLower(f.Name())] = f
}

// Lookup returns the formatter for name or an error listing valid names.
func (r *Registry) Lookup(name string) (Formatter, error) {
	if f, ok := r.formatters[strings.ToLower(name)]; ok {
		return f, nil
	}
	return nil, apperrors.Newf(apperrors.CodeInvalidParameter,
		"unknown output format %q (valid: %s)", name, strings.Join(r.Names(), ", "))
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
