// Package sampler draws synthetic count data for the posterior analysis.
package sampler

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "github.com/poisson-gamma/pkg/errors"
)

// Poisson draws counts from a Poisson(Rate) distribution. Draws with the
// same Seed are identical.
type Poisson struct {
	Rate float64
	Seed uint64
}

// Draw returns n independent counts.
func (p Poisson) Draw(n int) ([]int, error) {
	if p.Rate <= 0 || math.IsInf(p.Rate, 0) || math.IsNaN(p.Rate) {
		return nil, apperrors.Newf(apperrors.CodeInvalidParameter, "poisson rate must be positive and finite, got %v", p.Rate)
	}
	if n < 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidParameter, "sample size must be non-negative, got %d", n)
	}

	dist := distuv.Poisson{
		Lambda: p.Rate,
		Src:    rand.NewSource(p.Seed),
	}

	counts := make([]int, n)
	for i := range counts {
		counts[i] = int(dist.Rand())
	}
	return counts, nil
}
