package posterior

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poisson-gamma/internal/hpdi"
	"github.com/poisson-gamma/internal/testutil"
	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/utils"
)

func TestSummarize(t *testing.T) {
	g := gamma.MustNew(147, 51)

	s, err := Summarize(context.Background(), "posterior", g, 0.95, nil)
	require.NoError(t, err)

	assert.Equal(t, "posterior", s.Name)
	assert.Equal(t, 147.0, s.Shape)
	assert.Equal(t, 51.0, s.Rate)
	assert.InDelta(t, 1.0/51, s.Scale, 1e-15)
	assert.InDelta(t, 147.0/51, s.Mean, 1e-12)
	assert.InDelta(t, 146.0/51, s.Mode, 1e-12)
	assert.InDelta(t, math.Sqrt(147)/51, s.StdDev, 1e-12)
	assert.Less(t, s.Mode, s.Median)
	assert.Less(t, s.Median, s.Mean)

	require.True(t, s.HasHPDI())
	assert.Empty(t, s.HPDIError)
	assert.False(t, s.HPDIOneSided)
	assert.Greater(t, s.HPDIIterations, 0)
	testutil.AssertHPDI(t, g, *s.HPDI, 0.95, 1e-6)
	assert.Less(t, s.HPDI.Width(), s.EqualTailed.Width())
}

func TestSummarize_OneSidedPrior(t *testing.T) {
	s, err := Summarize(context.Background(), "prior", gamma.MustNew(1, 1), 0.95, hpdi.NewSolver())
	require.NoError(t, err)

	require.True(t, s.HasHPDI())
	assert.True(t, s.HPDIOneSided)
	assert.Equal(t, 0.0, s.HPDI.Lo)
	assert.InDelta(t, -math.Log(0.05), s.HPDI.Hi, 1e-6)
	assert.Equal(t, 0.0, s.Mode)
}

func TestSummarize_HPDIFailureKeepsClosedForm(t *testing.T) {
	solver := hpdi.NewSolver(hpdi.WithMaxIterations(1))

	s, err := Summarize(context.Background(), "posterior", gamma.MustNew(147, 51), 0.95, solver)
	require.NoError(t, err)

	assert.False(t, s.HasHPDI())
	assert.Contains(t, s.HPDIError, apperrors.CodeNonConvergence)
	assert.InDelta(t, 147.0/51, s.Mean, 1e-12)
	assert.NoError(t, s.EqualTailed.Validate())
}

func TestSummarize_InvalidCoverage(t *testing.T) {
	_, err := Summarize(context.Background(), "posterior", gamma.MustNew(2, 1), 1.5, nil)
	assert.True(t, apperrors.IsInvalidParameter(err))
}

func TestAnalyzer_Analyze(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := utils.NewMockClock(start)
	timer := utils.NewTimer("test", utils.WithClock(clock))

	var logs bytes.Buffer
	logger := utils.NewDefaultLogger(utils.LevelInfo, &logs)

	a, err := NewAnalyzer(gamma.MustNew(1, 1), 0.95,
		WithClock(clock),
		WithTimer(timer),
		WithAnalyzerLogger(logger),
	)
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), testutil.ReferenceCounts())
	require.NoError(t, err)

	assert.Equal(t, start, report.CreatedAt)
	assert.Equal(t, 0.95, report.Coverage)
	assert.Equal(t, 50, report.Data.Count)
	assert.Equal(t, 146, report.Data.Sum)
	assert.InDelta(t, 2.92, report.Data.Mean, 1e-12)

	require.NotNil(t, report.Prior)
	require.NotNil(t, report.Posterior)
	assert.Equal(t, 147.0, report.Posterior.Shape)
	assert.Equal(t, 51.0, report.Posterior.Rate)
	assert.True(t, report.Prior.HPDIOneSided)

	sc := testutil.ReferenceScenario
	require.True(t, report.Posterior.HasHPDI())
	assert.InDelta(t, sc.HPDILo, report.Posterior.HPDI.Lo, testutil.ReferenceDelta)
	assert.InDelta(t, sc.HPDIHi, report.Posterior.HPDI.Hi, testutil.ReferenceDelta)

	var names []string
	for _, p := range timer.Phases() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"update", "summarize"}, names)
	assert.Contains(t, logs.String(), "posterior gamma(shape=147, rate=51)")
}

func TestAnalyzer_InvalidCounts(t *testing.T) {
	a, err := NewAnalyzer(gamma.MustNew(1, 1), 0.9)
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), []int{1, -1})
	assert.Nil(t, report)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestNewAnalyzer_Validation(t *testing.T) {
	_, err := NewAnalyzer(gamma.MustNew(1, 1), 0)
	assert.True(t, apperrors.IsInvalidParameter(err))

	_, err = NewAnalyzer(gamma.Gamma{}, 0.9)
	assert.True(t, apperrors.IsInvalidParameter(err))

	a, err := NewAnalyzer(gamma.MustNew(2, 3), 0.8)
	require.NoError(t, err)
	assert.Equal(t, 0.8, a.Coverage())
	assert.Equal(t, 2.0, a.Prior().Shape())
}
