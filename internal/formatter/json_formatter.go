package formatter

import (
	"io"

	"github.com/poisson-gamma/pkg/model"
	"github.com/poisson-gamma/pkg/writer"
)

// JSONFormatter renders results as JSON documents.
type JSONFormatter struct {
	pretty bool
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(pretty bool) *JSONFormatter {
	return &JSONFormatter{pretty: pretty}
}

func (f *JSONFormatter) Name() string { return "json" }

func (f *JSONFormatter) FormatReport(report *model.Report, w io.Writer) error {
	return jsonWriter[*model.Report](f.pretty).Write(report, w)
}

func (f *JSONFormatter) FormatSummary(summary *model.Summary, w io.Writer) error {
	return jsonWriter[*model.Summary](f.pretty).Write(summary, w)
}

func (f *JSONFormatter) FormatBatch(batch *model.BatchReport, w io.Writer) error {
	return jsonWriter[*model.BatchReport](f.pretty).Write(batch, w)
}

func jsonWriter[T any](pretty bool) *writer.JSONWriter[T] {
	if pretty {
		return writer.NewPrettyJSONWriter[T]()
	}
	return writer.NewJSONWriter[T]()
}

// YAMLFormatter renders results as YAML documents.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Name() string { return "yaml" }

func (f *YAMLFormatter) FormatReport(report *model.Report, w io.Writer) error {
	return writer.NewYAMLWriter[*model.Report]().Write(report, w)
}

func (f *YAMLFormatter) FormatSummary(summary *model.Summary, w io.Writer) error {
	return writer.NewYAMLWriter[*model.Summary]().Write(summary, w)
}

func (f *YAMLFormatter) FormatBatch(batch *model.BatchReport, w io.Writer) error {
	return writer.NewYAMLWriter[*model.BatchReport]().Write(batch, w)
}
