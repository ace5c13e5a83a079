package posterior

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/poisson-gamma/internal/hpdi"
	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
	"github.com/poisson-gamma/pkg/telemetry"
)

// Summarize computes the descriptive statistics of g at coverage p.
//
// Only an invalid coverage is returned as an error. A failed HPDI solve is
// recorded on the summary (HPDI nil, HPDIError set) so the closed-form
// statistics are still reported.
func Summarize(ctx context.Context, name string, g gamma.Gamma, p float64, solver *hpdi.Solver) (*model.Summary, error) {
	eti, err := g.EqualTailed(p)
	if err != nil {
		return nil, err
	}
	if solver == nil {
		solver = hpdi.NewSolver()
	}

	s := &model.Summary{
		Name:        name,
		Shape:       g.Shape(),
		Rate:        g.Rate(),
		Scale:       g.Scale(),
		Coverage:    p,
		Mean:        g.Mean(),
		Median:      g.Median(),
		Mode:        g.Mode(),
		StdDev:      g.StdDev(),
		EqualTailed: eti,
	}

	_, span := telemetry.StartSpan(ctx, "hpdi.solve",
		attribute.String("distribution", name),
		attribute.Float64("gamma.shape", g.Shape()),
		attribute.Float64("gamma.rate", g.Rate()),
		attribute.Float64("coverage", p),
	)
	res, err := solver.SolveGamma(g, eti, p)
	if err != nil {
		s.HPDIError = err.Error()
		span.SetAttributes(attribute.String("error.code", apperrors.GetErrorCode(err)))
		telemetry.EndSpan(span, err)
		return s, nil
	}
	span.SetAttributes(
		attribute.Int("hpdi.iterations", res.Iterations),
		attribute.Bool("hpdi.one_sided", res.OneSided),
	)
	telemetry.EndSpan(span, nil)

	iv := res.Interval
	s.HPDI = &iv
	s.HPDIOneSided = res.OneSided
	s.HPDIIterations = res.Iterations
	s.HPDIMassResidual = res.MassResidual
	s.HPDIDensityResidual = res.DensityResidual
	return s, nil
}
