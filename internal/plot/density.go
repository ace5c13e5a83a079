// Package plot renders prior and posterior densities with their credible
// intervals.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
)

// Supported output formats.
var formats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "jpg": true, "jpeg": true, "eps": true, "tif": true, "tiff": true,
}

const (
	// Each curve spans its central 99.9% of mass.
	tailMass = 0.0005
	// Cap applied when the prior density is unbounded at the origin.
	unboundedCap = 1.5
)

// Options controls the figure.
type Options struct {
	Title   string
	Width   vg.Length
	Height  vg.Length
	Samples int
}

// DefaultOptions returns a 6x4 inch figure.
func DefaultOptions() Options {
	return Options{
		Title:   "Prior vs posterior",
		Width:   6 * vg.Inch,
		Height:  4 * vg.Inch,
		Samples: 400,
	}
}

var (
	priorColor     = plotutil.Color(1)
	posteriorColor = plotutil.Color(0)
	intervalColor  = color.RGBA{R: 96, G: 96, B: 96, A: 255}
)

// DensityPlot draws the prior and posterior densities. The HPDI bounds are
// solid vertical markers and the equal-tailed bounds dashed; hpdi may be nil.
func DensityPlot(prior, posterior gamma.Gamma, hpdi *model.Interval, eti model.Interval, opts Options) (*plot.Plot, error) {
	if opts.Samples <= 0 {
		opts.Samples = DefaultOptions().Samples
	}

	xmin := math.Min(prior.Quantile(tailMass), posterior.Quantile(tailMass))
	xmax := math.Max(prior.Quantile(1-tailMass), posterior.Quantile(1-tailMass))
	if !(xmax > xmin) || math.IsInf(xmax, 0) {
		return nil, apperrors.Newf(apperrors.CodePlotError, "cannot determine x range [%g, %g]", xmin, xmax)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "λ"
	p.Y.Label.Text = "density"
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min = 0
	p.Y.Max = yLimit(prior, posterior, xmin, xmax, opts.Samples)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	priorFn := plotter.NewFunction(prior.Prob)
	priorFn.Samples = opts.Samples
	priorFn.Color = priorColor
	priorFn.Width = vg.Points(1.5)
	p.Add(priorFn)
	p.Legend.Add(fmt.Sprintf("prior Γ(%.4g, %.4g)", prior.Shape(), prior.Rate()), priorFn)

	postFn := plotter.NewFunction(posterior.Prob)
	postFn.Samples = opts.Samples
	postFn.Color = posteriorColor
	postFn.Width = vg.Points(2)
	p.Add(postFn)
	p.Legend.Add(fmt.Sprintf("posterior Γ(%.4g, %.4g)", posterior.Shape(), posterior.Rate()), postFn)

	etiLines, err := markers(eti, p.Y.Max, []vg.Length{vg.Points(4), vg.Points(3)})
	if err != nil {
		return nil, err
	}
	p.Add(etiLines[0], etiLines[1])
	p.Legend.Add("equal-tailed "+eti.String(), etiLines[0])

	if hpdi != nil {
		hpdiLines, err := markers(*hpdi, p.Y.Max, nil)
		if err != nil {
			return nil, err
		}
		p.Add(hpdiLines[0], hpdiLines[1])
		p.Legend.Add("HPDI "+hpdi.String(), hpdiLines[0])
	}

	return p, nil
}

// yLimit returns a y-axis maximum with headroom over both curves.
func yLimit(prior, posterior gamma.Gamma, xmin, xmax float64, samples int) float64 {
	peak := func(g gamma.Gamma) float64 {
		if g.Unimodal() {
			return g.Prob(g.Mode())
		}
		return g.Prob(math.Max(xmin, (xmax-xmin)/float64(samples)))
	}

	postPeak := peak(posterior)
	ymax := math.Max(postPeak, peak(prior))
	if prior.Shape() < 1 {
		ymax = math.Min(ymax, unboundedCap*postPeak)
	}
	return 1.1 * ymax
}

func markers(iv model.Interval, height float64, dashes []vg.Length) ([2]*plotter.Line, error) {
	var out [2]*plotter.Line
	for i, x := range []float64{iv.Lo, iv.Hi} {
		line, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: height}})
		if err != nil {
			return out, apperrors.Wrap(apperrors.CodePlotError, "failed to build interval marker", err)
		}
		line.Color = intervalColor
		line.Dashes = dashes
		out[i] = line
	}
	return out, nil
}

// Save renders p to path; the format comes from the file extension.
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	if _, err := formatFor(strings.TrimPrefix(filepath.Ext(path), ".")); err != nil {
		return err
	}
	if err := p.Save(width, height, path); err != nil {
		return apperrors.Wrap(apperrors.CodePlotError, "failed to save plot to "+path, err)
	}
	return nil
}

// WriteTo renders p to w in format (png, svg, pdf, ...).
func WriteTo(p *plot.Plot, w io.Writer, format string, width, height vg.Length) error {
	format, err := formatFor(format)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return apperrors.Wrap(apperrors.CodePlotError, "failed to render plot", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return apperrors.Wrap(apperrors.CodePlotError, "failed to write plot", err)
	}
	return nil
}

func formatFor(format string) (string, error) {
	format = strings.ToLower(format)
	if !formats[format] {
		return "", apperrors.Newf(apperrors.CodePlotError, "unsupported plot format %q", format)
	}
	return format, nil
}

// ValidFormat reports whether format can be rendered.
func ValidFormat(format string) bool {
	_, err := formatFor(format)
	return err == nil
}
