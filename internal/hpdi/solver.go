package hpdi

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
	"github.com/poisson-gamma/pkg/utils"
)

const (
	// DefaultTolerance bounds both residuals at convergence.
	DefaultTolerance = 1e-10
	// DefaultMaxIterations is the Newton iteration budget.
	DefaultMaxIterations = 100

	maxBacktracks = 50
	// log of the smallest normal float64; a lower log bound below it has
	// underflowed and the left end is considered pinned at 0.
	minLogLo = -708.39
	// Initial lo when the guess starts at the origin.
	originOffset = 1e-3
	// Newton polish steps for the one-sided upper bound.
	polishSteps = 20
)

// BoundaryPolicy selects what happens when the iteration drives lo to zero.
type BoundaryPolicy int

const (
	// BoundaryReanchor fixes lo at 0 and re-solves CDF(hi) = p.
	BoundaryReanchor BoundaryPolicy = iota
	// BoundaryReject returns a DegenerateInterval error.
	BoundaryReject
)

// String returns the config name of the policy.
func (b BoundaryPolicy) String() string {
	switch b {
	case BoundaryReanchor:
		return "reanchor"
	case BoundaryReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseBoundaryPolicy parses "reanchor" or "reject".
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reanchor":
		return BoundaryReanchor, nil
	case "reject":
		return BoundaryReject, nil
	default:
		return 0, apperrors.Newf(apperrors.CodeInvalidParameter, "unknown boundary policy %q (valid: reanchor, reject)", s)
	}
}

// Result is a solved HPDI together with its convergence diagnostics.
type Result struct {
	Interval model.Interval
	// Iterations is the number of Newton steps taken.
	Iterations int
	// MassResidual is CDF(hi) - CDF(lo) - p.
	MassResidual float64
	// DensityResidual is log f(lo) - log f(hi). Zero for one-sided results.
	DensityResidual float64
	// OneSided is set when lo was pinned at 0.
	OneSided bool
}

// IterateError carries the last iterate of a failed solve.
type IterateError struct {
	Last            model.Interval
	Iterations      int
	MassResidual    float64
	DensityResidual float64
	Reason          string
}

func (e *IterateError) Error() string {
	return fmt.Sprintf("%s after %d iterations (last %s, mass residual %.3g, density residual %.3g)",
		e.Reason, e.Iterations, e.Last, e.MassResidual, e.DensityResidual)
}

// Solver finds highest-density intervals of Gamma distributions.
type Solver struct {
	tolerance     float64
	maxIterations int
	boundary      BoundaryPolicy
	logger        utils.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithTolerance sets the residual tolerance.
func WithTolerance(tol float64) Option {
	return func(s *Solver) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithMaxIterations sets the Newton iteration budget.
func WithMaxIterations(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithBoundaryPolicy sets the policy applied when lo reaches zero.
func WithBoundaryPolicy(p BoundaryPolicy) Option {
	return func(s *Solver) {
		s.boundary = p
	}
}

// WithLogger sets the logger used for per-iteration debug output.
func WithLogger(logger utils.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSolver creates a Solver with defaults overridden by opts.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
		boundary:      BoundaryReanchor,
		logger:        &utils.NullLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tolerance returns the residual tolerance.
func (s *Solver) Tolerance() float64 { return s.tolerance }

// Solve returns the HPDI of Gamma(shape, scale) with coverage p, starting
// from guess. See SolveGamma.
func Solve(guess model.Interval, shape, scale, p float64) (model.Interval, error) {
	res, err := NewSolver().Solve(guess, shape, scale, p)
	if err != nil {
		return model.Interval{}, err
	}
	return res.Interval, nil
}

// Solve validates the parameters and solves for the HPDI.
func (s *Solver) Solve(guess model.Interval, shape, scale, p float64) (*Result, error) {
	g, err := gamma.FromScale(shape, scale)
	if err != nil {
		return nil, err
	}
	return s.SolveGamma(g, guess, p)
}

// SolveFromEqualTailed seeds the solve with the equal-tailed interval.
func (s *Solver) SolveFromEqualTailed(g gamma.Gamma, p float64) (*Result, error) {
	guess, err := g.EqualTailed(p)
	if err != nil {
		return nil, err
	}
	return s.SolveGamma(g, guess, p)
}

// SolveGamma solves CDF(hi)-CDF(lo) = p and f(lo) = f(hi) from guess.
//
// The iteration runs on the standard Gamma(α, 1), where the HPDI is the
// original one multiplied by β, and on (log lo, log hi), so neither an
// extreme scale nor a lower bound far below the mode leaves float64 range.
func (s *Solver) SolveGamma(g gamma.Gamma, guess model.Interval, p float64) (*Result, error) {
	if err := gamma.ValidateCoverage(p); err != nil {
		return nil, err
	}
	if err := validateGuess(guess); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"shape":    g.Shape(),
		"scale":    g.Scale(),
		"coverage": p,
	})

	rate := g.Rate()
	unit, err := gamma.New(g.Shape(), 1)
	if err != nil {
		return nil, err
	}

	lo, hi := guess.Lo*rate, guess.Hi*rate
	if math.IsInf(hi, 0) || hi == 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidParameter,
			"initial guess %s is out of range for rate %g", guess, rate)
	}
	if lo == 0 {
		lo = hi * originOffset
	}
	u, w := math.Log(lo), math.Log(hi)
	r := residuals(unit, u, w, p)

	if !unit.Unimodal() {
		log.Debug("density is monotone, interval is one-sided")
		return s.boundaryHit(unit, rate, p, u, w, r, 0)
	}

	for iter := 0; iter < s.maxIterations; iter++ {
		if s.converged(r) {
			return s.finish(unit, rate, p, u, w, r, iter, log)
		}

		step, err := newtonStep(unit, u, w, r)
		if err != nil {
			log.Debug("iter %d: singular jacobian at [%g, %g]: %v", iter, math.Exp(u)/rate, math.Exp(w)/rate, err)
			return nil, s.stalled(rate, u, w, r, iter+1, "singular jacobian")
		}

		merit := floats.Dot(r[:], r[:])
		accepted := false
		t := 1.0
		for k := 0; k < maxBacktracks; k++ {
			nu, nw := u+t*step[0], w+t*step[1]
			if nw > nu {
				nr := residuals(unit, nu, nw, p)
				if !math.IsNaN(nr[0]) && !math.IsNaN(nr[1]) && floats.Dot(nr[:], nr[:]) < merit {
					u, w, r = nu, nw, nr
					accepted = true
					break
				}
			}
			t /= 2
		}
		log.Debug("iter %d: lo=%.12g hi=%.12g mass=%.3g density=%.3g step=%g",
			iter+1, math.Exp(u)/rate, math.Exp(w)/rate, r[0], r[1], t)

		if !accepted {
			return nil, s.stalled(rate, u, w, r, iter+1, "line search stalled")
		}
		if u < minLogLo {
			log.Debug("lower bound underflowed (log lo = %g), interval is one-sided", u)
			return s.boundaryHit(unit, rate, p, u, w, r, iter+1)
		}
	}

	if s.converged(r) {
		return s.finish(unit, rate, p, u, w, r, s.maxIterations, log)
	}
	return nil, s.stalled(rate, u, w, r, s.maxIterations, "iteration budget exhausted")
}

func validateGuess(guess model.Interval) error {
	if err := guess.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidParameter, "initial guess must satisfy 0 <= lo < hi", err)
	}
	return nil
}

func (s *Solver) converged(r [2]float64) bool {
	return math.Abs(r[0]) <= s.tolerance && math.Abs(r[1]) <= s.tolerance
}

// rescale maps (log lo, log hi) on the standard Gamma back to the original scale.
func rescale(rate, u, w float64) model.Interval {
	return model.Interval{Lo: math.Exp(u) / rate, Hi: math.Exp(w) / rate}
}

func (s *Solver) finish(unit gamma.Gamma, rate, p, u, w float64, r [2]float64, iters int, log utils.Logger) (*Result, error) {
	iv := rescale(rate, u, w)
	if iv.Lo == 0 {
		log.Debug("lower bound %g underflows at rate %g, interval is one-sided", math.Exp(u), rate)
		return s.boundaryHit(unit, rate, p, u, w, r, iters)
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	log.Debug("converged in %d iterations to %s", iters, iv)
	return &Result{
		Interval:        iv,
		Iterations:      iters,
		MassResidual:    r[0],
		DensityResidual: r[1],
	}, nil
}

func (s *Solver) stalled(rate, u, w float64, r [2]float64, iters int, reason string) error {
	return apperrors.Wrap(apperrors.CodeNonConvergence, "hpdi solve failed", &IterateError{
		Last:            rescale(rate, u, w),
		Iterations:      iters,
		MassResidual:    r[0],
		DensityResidual: r[1],
		Reason:          reason,
	})
}

// boundaryHit applies the boundary policy once the lower end belongs at zero:
// the density is monotone, or lo is below the smallest normal float64.
func (s *Solver) boundaryHit(unit gamma.Gamma, rate, p, u, w float64, r [2]float64, iters int) (*Result, error) {
	if s.boundary == BoundaryReject {
		return nil, apperrors.Wrap(apperrors.CodeDegenerateInterval,
			"lower bound driven to zero, interval is one-sided",
			&IterateError{
				Last:            rescale(rate, u, w),
				Iterations:      iters,
				MassResidual:    r[0],
				DensityResidual: r[1],
				Reason:          "boundary reached",
			})
	}
	res, err := s.solveOneSided(unit, rate, p)
	if err != nil {
		return nil, err
	}
	res.Iterations = iters
	return res, nil
}

// solveOneSided solves CDF(hi) - CDF(0) = p with lo fixed at zero.
func (s *Solver) solveOneSided(unit gamma.Gamma, rate, p float64) (*Result, error) {
	hi := unit.Quantile(p)
	res := unit.CDF(hi) - p
	for i := 0; i < polishSteps && math.Abs(res) > s.tolerance; i++ {
		f := unit.Prob(hi)
		if f <= 0 || math.IsNaN(f) {
			break
		}
		next := hi - res/f
		if next <= 0 || math.IsNaN(next) {
			break
		}
		hi = next
		res = unit.CDF(hi) - p
	}

	iv := model.Interval{Lo: 0, Hi: hi / rate}
	if math.Abs(res) > s.tolerance {
		return nil, apperrors.Wrap(apperrors.CodeNonConvergence, "one-sided hpdi solve failed", &IterateError{
			Last:         iv,
			Iterations:   polishSteps,
			MassResidual: res,
			Reason:       "upper bound polish stalled",
		})
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	return &Result{
		Interval:     iv,
		MassResidual: res,
		OneSided:     true,
	}, nil
}

// residuals returns the (mass, log-density) residuals at lo = e^u, hi = e^w
// on the standard Gamma.
func residuals(unit gamma.Gamma, u, w, p float64) [2]float64 {
	lo, hi := math.Exp(u), math.Exp(w)
	mass := unit.CDF(hi) - unit.CDF(lo) - p
	density := (unit.Shape()-1)*(u-w) - (lo - hi)
	return [2]float64{mass, density}
}

// newtonStep solves J·d = -r for the Jacobian with respect to (log lo, log hi)
//
//	| -lo·f(lo)              hi·f(hi)              |
//	|  lo·(log f)'(lo)      -hi·(log f)'(hi)       |
//
// lo·f(lo) is formed in log space so it stays representable when f(lo) is not.
func newtonStep(unit gamma.Gamma, u, w float64, r [2]float64) ([2]float64, error) {
	lo, hi := math.Exp(u), math.Exp(w)
	jac := mat.NewDense(2, 2, []float64{
		-math.Exp(unit.LogProb(lo) + u), math.Exp(unit.LogProb(hi) + w),
		lo * unit.DLogProb(lo), -hi * unit.DLogProb(hi),
	})
	rhs := mat.NewVecDense(2, []float64{-r[0], -r[1]})

	var step mat.VecDense
	if err := step.SolveVec(jac, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return [2]float64{}, err
		}
	}
	d := [2]float64{step.AtVec(0), step.AtVec(1)}
	if math.IsNaN(d[0]) || math.IsNaN(d[1]) || math.IsInf(d[0], 0) || math.IsInf(d[1], 0) {
		return [2]float64{}, errors.New("non-finite newton step")
	}
	return d, nil
}
