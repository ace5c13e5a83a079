package posterior

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/poisson-gamma/internal/hpdi"
	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
	"github.com/poisson-gamma/pkg/telemetry"
	"github.com/poisson-gamma/pkg/utils"
)

// Analyzer turns a prior and a set of counts into a Report.
type Analyzer struct {
	prior    gamma.Gamma
	coverage float64
	solver   *hpdi.Solver
	logger   utils.Logger
	clock    utils.Clock
	timer    *utils.Timer
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithSolver sets the HPDI solver.
func WithSolver(s *hpdi.Solver) AnalyzerOption {
	return func(a *Analyzer) {
		if s != nil {
			a.solver = s
		}
	}
}

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(l utils.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock sets the clock used for the report timestamp.
func WithClock(c utils.Clock) AnalyzerOption {
	return func(a *Analyzer) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithTimer records the update and summarize phases on t.
func WithTimer(t *utils.Timer) AnalyzerOption {
	return func(a *Analyzer) {
		a.timer = t
	}
}

// NewAnalyzer creates an Analyzer for the given prior and coverage.
func NewAnalyzer(prior gamma.Gamma, coverage float64, opts ...AnalyzerOption) (*Analyzer, error) {
	if err := gamma.ValidateCoverage(coverage); err != nil {
		return nil, err
	}
	if prior.Shape() <= 0 || prior.Rate() <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParameter, "prior is not initialised")
	}
	a := &Analyzer{
		prior:    prior,
		coverage: coverage,
		solver:   hpdi.NewSolver(),
		logger:   &utils.NullLogger{},
		clock:    utils.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.timer == nil {
		a.timer = utils.NewTimer("analysis", utils.WithClock(a.clock))
	}
	return a, nil
}

// Analyze updates the prior with counts and summarises both distributions.
func (a *Analyzer) Analyze(ctx context.Context, counts []int) (report *model.Report, err error) {
	ctx, span := telemetry.StartSpan(ctx, "analysis.run",
		attribute.Int("data.count", len(counts)),
		attribute.Float64("coverage", a.coverage),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	var post gamma.Gamma
	err = a.timer.TimeFunc("update", func() error {
		var uerr error
		post, uerr = Update(a.prior, counts)
		return uerr
	})
	if err != nil {
		return nil, err
	}

	report = &model.Report{
		CreatedAt: a.clock.Now(),
		Coverage:  a.coverage,
		Data:      Describe(counts),
	}
	a.logger.Info("posterior gamma(shape=%g, rate=%g) from %d observations summing to %d",
		post.Shape(), post.Rate(), report.Data.Count, report.Data.Sum)

	err = a.timer.TimeFunc("summarize", func() error {
		sctx, sspan := telemetry.StartSpan(ctx, "posterior.summarize")
		defer sspan.End()

		var serr error
		if report.Prior, serr = Summarize(sctx, "prior", a.prior, a.coverage, a.solver); serr != nil {
			return serr
		}
		report.Posterior, serr = Summarize(sctx, "posterior", post, a.coverage, a.solver)
		return serr
	})
	if err != nil {
		return nil, err
	}

	for _, s := range []*model.Summary{report.Prior, report.Posterior} {
		if s.HPDIError != "" {
			a.logger.Warn("%s hpdi unavailable: %s", s.Name, s.HPDIError)
		}
	}
	return report, nil
}

// Prior returns the configured prior.
func (a *Analyzer) Prior() gamma.Gamma { return a.prior }

// Coverage returns the configured coverage.
func (a *Analyzer) Coverage() float64 { return a.coverage }
