package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/poisson-gamma/pkg/model"
)

// TableFormatter renders aligned plain-text tables.
type TableFormatter struct {
	heading *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
}

// NewTableFormatter creates a table formatter. Without color all output
// is plain text.
func NewTableFormatter(useColor bool) *TableFormatter {
	f := &TableFormatter{
		heading: color.New(color.Bold, color.FgCyan),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed),
	}
	for _, c := range []*color.Color{f.heading, f.good, f.warn, f.bad} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// Name returns "table".
func (f *TableFormatter) Name() string { return "table" }

// FormatReport prints the data summary and a prior vs posterior table.
func (f *TableFormatter) FormatReport(report *model.Report, w io.Writer) error {
	if report == nil {
		return nil
	}

	f.heading.Fprintln(w, "=== Data ===")
	d := report.Data
	fmt.Fprintf(w, "observations: %d  sum: %d  range: [%d, %d]  mean: %.4f  variance: %.4f\n\n",
		d.Count, d.Sum, d.Min, d.Max, d.Mean, d.Variance)

	f.heading.Fprintf(w, "=== Prior vs posterior (%s credible mass) ===\n", percent(report.Coverage))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "statistic\tprior\tposterior")
	for _, row := range summaryRows(report.Coverage) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.label, row.value(report.Prior), row.value(report.Posterior))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range []*model.Summary{report.Prior, report.Posterior} {
		if s != nil && s.HPDIError != "" {
			f.warn.Fprintf(w, "%s hpdi: %s\n", s.Name, s.HPDIError)
		}
	}
	if report.PlotFile != "" {
		fmt.Fprintf(w, "\nplot: %s\n", report.PlotFile)
	}
	return nil
}

// FormatSummary prints one distribution as a two-column table.
func (f *TableFormatter) FormatSummary(s *model.Summary, w io.Writer) error {
	if s == nil {
		return nil
	}

	f.heading.Fprintf(w, "=== %s ===\n", s.Name)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range summaryRows(s.Coverage) {
		fmt.Fprintf(tw, "%s\t%s\n", row.label, row.value(s))
	}
	if s.HasHPDI() {
		fmt.Fprintf(tw, "iterations\t%d\n", s.HPDIIterations)
		fmt.Fprintf(tw, "mass residual\t%.3g\n", s.HPDIMassResidual)
		fmt.Fprintf(tw, "density residual\t%.3g\n", s.HPDIDensityResidual)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if s.HPDIError != "" {
		f.bad.Fprintf(w, "hpdi failed: %s\n", s.HPDIError)
	}
	return nil
}

// FormatBatch prints one row per job followed by the totals.
func (f *TableFormatter) FormatBatch(batch *model.BatchReport, w io.Writer) error {
	if batch == nil {
		return nil
	}

	f.heading.Fprintf(w, "=== Batch results (%d jobs) ===\n", batch.Total)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tjob\tcoverage\tequal-tailed\thpdi\titer\tstatus")
	for i, r := range batch.Results {
		eti, hpdi := "-", "-"
		if r.EqualTailed != nil {
			eti = r.EqualTailed.String()
		}
		if r.HPDI != nil {
			hpdi = r.HPDI.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			i+1, r.Job.Label(), percent(r.Job.Coverage), eti, hpdi, r.Iterations, f.status(r))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nconverged: %d  one-sided: %d  failed: %d  elapsed: %s\n",
		batch.Converged, batch.OneSided, batch.Failed, batch.Elapsed)
	return nil
}

func (f *TableFormatter) status(r model.BatchResult) string {
	switch {
	case r.Failed():
		return f.bad.Sprint(r.ErrorCode)
	case r.OneSided:
		return f.warn.Sprint("one-sided")
	default:
		return f.good.Sprint("ok")
	}
}

type summaryRow struct {
	label string
	value func(s *model.Summary) string
}

func summaryRows(coverage float64) []summaryRow {
	cell := func(format string, get func(*model.Summary) float64) func(*model.Summary) string {
		return func(s *model.Summary) string {
			if s == nil {
				return "-"
			}
			return fmt.Sprintf(format, get(s))
		}
	}
	num := func(get func(*model.Summary) float64) func(*model.Summary) string {
		return cell("%.4f", get)
	}
	pct := percent(coverage)

	return []summaryRow{
		{"shape", cell("%g", func(s *model.Summary) float64 { return s.Shape })},
		{"rate", cell("%g", func(s *model.Summary) float64 { return s.Rate })},
		{"mean", num(func(s *model.Summary) float64 { return s.Mean })},
		{"median", num(func(s *model.Summary) float64 { return s.Median })},
		{"mode", num(func(s *model.Summary) float64 { return s.Mode })},
		{"std dev", num(func(s *model.Summary) float64 { return s.StdDev })},
		{pct + " equal-tailed", func(s *model.Summary) string {
			if s == nil {
				return "-"
			}
			return s.EqualTailed.String()
		}},
		{pct + " hpdi", hpdiCell},
	}
}

func hpdiCell(s *model.Summary) string {
	switch {
	case s == nil:
		return "-"
	case !s.HasHPDI():
		return "n/a"
	case s.HPDIOneSided:
		return s.HPDI.String() + " one-sided"
	default:
		return s.HPDI.String()
	}
}

// percent formats 0.95 as "95%".
func percent(p float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", p*100), "0"), ".")
	return s + "%"
}
