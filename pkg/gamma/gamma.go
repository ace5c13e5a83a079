// Package gamma wraps the Gamma distribution primitives used by the
// posterior analysis: density, log density, CDF, quantiles and moments.
//
// The distribution is parameterised by shape α and rate β; the scale is
// θ = 1/β. Values are immutable once constructed.
package gamma

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/model"
)

// Gamma is a Gamma(shape, rate) distribution.
type Gamma struct {
	shape float64
	rate  float64
	dist  distuv.Gamma
}

// New creates a Gamma distribution from shape and rate.
func New(shape, rate float64) (Gamma, error) {
	if !positiveFinite(shape) {
		return Gamma{}, apperrors.Newf(apperrors.CodeInvalidParameter, "shape must be positive and finite, got %v", shape)
	}
	if !positiveFinite(rate) {
		return Gamma{}, apperrors.Newf(apperrors.CodeInvalidParameter, "rate must be positive and finite, got %v", rate)
	}
	return Gamma{
		shape: shape,
		rate:  rate,
		dist:  distuv.Gamma{Alpha: shape, Beta: rate},
	}, nil
}

// FromScale creates a Gamma distribution from shape and scale.
func FromScale(shape, scale float64) (Gamma, error) {
	if !positiveFinite(scale) {
		return Gamma{}, apperrors.Newf(apperrors.CodeInvalidParameter, "scale must be positive and finite, got %v", scale)
	}
	return New(shape, 1/scale)
}

// MustNew is like New but panics on invalid parameters. Intended for
// constants and tests.
func MustNew(shape, rate float64) Gamma {
	g, err := New(shape, rate)
	if err != nil {
		panic(err)
	}
	return g
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}

// Shape returns α.
func (g Gamma) Shape() float64 { return g.shape }

// Rate returns β.
func (g Gamma) Rate() float64 { return g.rate }

// Scale returns θ = 1/β.
func (g Gamma) Scale() float64 { return 1 / g.rate }

// Prob returns the density at x. It is zero for x <= 0.
func (g Gamma) Prob(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return g.dist.Prob(x)
}

// LogProb returns the log density at x, -Inf for x <= 0.
func (g Gamma) LogProb(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return g.dist.LogProb(x)
}

// DLogProb returns d/dx log f(x) = (α-1)/x - β for x > 0.
func (g Gamma) DLogProb(x float64) float64 {
	return (g.shape-1)/x - g.rate
}

// CDF returns P(X <= x).
func (g Gamma) CDF(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return g.dist.CDF(x)
}

// Quantile returns the inverse CDF at p. p must lie in [0, 1].
func (g Gamma) Quantile(p float64) float64 {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return math.Inf(1)
	}
	return g.dist.Quantile(p)
}

// Mass returns the probability assigned to iv.
func (g Gamma) Mass(iv model.Interval) float64 {
	return g.CDF(iv.Hi) - g.CDF(iv.Lo)
}

// Mean returns α/β.
func (g Gamma) Mean() float64 { return g.shape / g.rate }

// Median returns the 0.5 quantile. There is no closed form.
func (g Gamma) Median() float64 { return g.Quantile(0.5) }

// Mode returns (α-1)/β for α >= 1. For α < 1 the density is unbounded at
// the origin and the mode is 0.
func (g Gamma) Mode() float64 {
	if g.shape < 1 {
		return 0
	}
	return (g.shape - 1) / g.rate
}

// Variance returns α/β².
func (g Gamma) Variance() float64 { return g.shape / (g.rate * g.rate) }

// StdDev returns √α/β.
func (g Gamma) StdDev() float64 { return math.Sqrt(g.shape) / g.rate }

// Unimodal reports whether the density has an interior mode (α > 1).
func (g Gamma) Unimodal() bool { return g.shape > 1 }

// EqualTailed returns the interval leaving (1-p)/2 mass in each tail.
func (g Gamma) EqualTailed(p float64) (model.Interval, error) {
	if err := ValidateCoverage(p); err != nil {
		return model.Interval{}, err
	}
	return model.Interval{
		Lo: g.Quantile((1 - p) / 2),
		Hi: g.Quantile((1 + p) / 2),
	}, nil
}

// ValidateCoverage checks that p lies strictly inside (0, 1).
func ValidateCoverage(p float64) error {
	if !(p > 0 && p < 1) {
		return apperrors.Newf(apperrors.CodeInvalidParameter, "coverage must lie in (0, 1), got %v", p)
	}
	return nil
}
