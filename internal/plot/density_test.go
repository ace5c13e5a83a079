package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
)

func referencePlotInputs() (gamma.Gamma, gamma.Gamma, *model.Interval, model.Interval) {
	prior := gamma.MustNew(1, 1)
	post := gamma.MustNew(147, 51)
	hpdi := &model.Interval{Lo: 2.42, Hi: 3.35}
	eti := model.Interval{Lo: 2.44, Hi: 3.37}
	return prior, post, hpdi, eti
}

func TestDensityPlot_Ranges(t *testing.T) {
	prior, post, hpdi, eti := referencePlotInputs()

	p, err := DensityPlot(prior, post, hpdi, eti, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "Prior vs posterior", p.Title.Text)
	assert.InDelta(t, prior.Quantile(tailMass), p.X.Min, 1e-12)
	assert.InDelta(t, prior.Quantile(1-tailMass), p.X.Max, 1e-12)
	assert.Equal(t, 0.0, p.Y.Min)
	assert.Greater(t, p.Y.Max, post.Prob(post.Mode()))
}

func TestDensityPlot_UnboundedPriorIsCapped(t *testing.T) {
	prior := gamma.MustNew(0.5, 1)
	post := gamma.MustNew(20, 10)
	eti, err := post.EqualTailed(0.9)
	require.NoError(t, err)

	p, err := DensityPlot(prior, post, nil, eti, Options{Title: "capped"})
	require.NoError(t, err)
	assert.LessOrEqual(t, p.Y.Max, 1.1*unboundedCap*post.Prob(post.Mode())+1e-12)
}

func TestWriteTo(t *testing.T) {
	prior, post, hpdi, eti := referencePlotInputs()
	p, err := DensityPlot(prior, post, hpdi, eti, DefaultOptions())
	require.NoError(t, err)

	tests := []struct {
		format string
		magic  []byte
	}{
		{"png", []byte("\x89PNG")},
		{"svg", []byte("<svg")},
		{"pdf", []byte("%PDF")},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteTo(p, &buf, tt.format, 4*vg.Inch, 3*vg.Inch))
			head := buf.Bytes()[:min(buf.Len(), 256)]
			assert.True(t, bytes.Contains(head, tt.magic), "unexpected header %q", head)
		})
	}

	var buf bytes.Buffer
	err = WriteTo(p, &buf, "bmp", 4*vg.Inch, 3*vg.Inch)
	assert.Equal(t, apperrors.CodePlotError, apperrors.GetErrorCode(err))
}

func TestSave(t *testing.T) {
	prior, post, hpdi, eti := referencePlotInputs()
	p, err := DensityPlot(prior, post, hpdi, eti, DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "density.png")
	require.NoError(t, Save(p, path, 4*vg.Inch, 3*vg.Inch))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	err = Save(p, filepath.Join(t.TempDir(), "density.txt"), 4*vg.Inch, 3*vg.Inch)
	assert.Error(t, err)
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("PNG"))
	assert.True(t, ValidFormat("svg"))
	assert.False(t, ValidFormat("gif"))
	assert.False(t, ValidFormat(""))
}
