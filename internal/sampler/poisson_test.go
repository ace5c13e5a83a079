package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/poisson-gamma/pkg/errors"
)

func TestPoisson_Draw(t *testing.T) {
	counts, err := Poisson{Rate: 3, Seed: 42}.Draw(5000)
	require.NoError(t, err)
	require.Len(t, counts, 5000)

	xs := make([]float64, len(counts))
	for i, c := range counts {
		assert.GreaterOrEqual(t, c, 0)
		xs[i] = float64(c)
	}

	mean, variance := stat.MeanVariance(xs, nil)
	assert.InDelta(t, 3.0, mean, 0.15)
	assert.InDelta(t, 3.0, variance, 0.4)
}

func TestPoisson_DrawIsReproducible(t *testing.T) {
	a, err := Poisson{Rate: 2.5, Seed: 7}.Draw(100)
	require.NoError(t, err)
	b, err := Poisson{Rate: 2.5, Seed: 7}.Draw(100)
	require.NoError(t, err)
	c, err := Poisson{Rate: 2.5, Seed: 8}.Draw(100)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPoisson_DrawEmpty(t *testing.T) {
	counts, err := Poisson{Rate: 1, Seed: 1}.Draw(0)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestPoisson_DrawInvalid(t *testing.T) {
	tests := []struct {
		name string
		p    Poisson
		n    int
	}{
		{name: "zero rate", p: Poisson{Rate: 0}, n: 10},
		{name: "negative rate", p: Poisson{Rate: -1}, n: 10},
		{name: "negative size", p: Poisson{Rate: 1}, n: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Draw(tt.n)
			assert.True(t, apperrors.IsInvalidParameter(err))
		})
	}
}
