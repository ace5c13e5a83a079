// Package posterior performs the Poisson/Gamma conjugate update and
// summarises the resulting distributions.
package posterior

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
)

// Update returns the posterior of a Gamma(α, β) prior after observing
// Poisson counts: Gamma(α + Σx, β + n). No data returns the prior.
func Update(prior gamma.Gamma, counts []int) (gamma.Gamma, error) {
	sum := 0
	for i, c := range counts {
		if c < 0 {
			return gamma.Gamma{}, apperrors.Newf(apperrors.CodeInvalidInput, "count %d at index %d is negative", c, i)
		}
		sum += c
	}
	return gamma.New(prior.Shape()+float64(sum), prior.Rate()+float64(len(counts)))
}

// Describe computes count, sum, range and sample moments of the counts.
func Describe(counts []int) model.DataStats {
	if len(counts) == 0 {
		return model.DataStats{}
	}

	xs := make([]float64, len(counts))
	for i, c := range counts {
		xs[i] = float64(c)
	}

	ds := model.DataStats{
		Count: len(counts),
		Sum:   int(floats.Sum(xs)),
		Min:   int(floats.Min(xs)),
		Max:   int(floats.Max(xs)),
		Mean:  stat.Mean(xs, nil),
	}
	if len(xs) > 1 {
		ds.Variance = stat.Variance(xs, nil)
	}
	if math.IsNaN(ds.Variance) {
		ds.Variance = 0
	}
	return ds
}
