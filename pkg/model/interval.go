package model

import (
	"fmt"
	"math"

	apperrors "github.com/poisson-gamma/pkg/errors"
)

// Interval is a closed interval [Lo, Hi] on the positive half line.
// It carries either an equal-tailed credible interval or an HPDI.
type Interval struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Width returns Hi - Lo.
func (iv Interval) Width() float64 {
	return iv.Hi - iv.Lo
}

// Midpoint returns the centre of the interval.
func (iv Interval) Midpoint() float64 {
	return (iv.Lo + iv.Hi) / 2
}

// Contains reports whether x lies inside the closed interval.
func (iv Interval) Contains(x float64) bool {
	return x >= iv.Lo && x <= iv.Hi
}

// Validate checks 0 <= Lo < Hi with finite bounds.
func (iv Interval) Validate() error {
	if math.IsNaN(iv.Lo) || math.IsNaN(iv.Hi) || math.IsInf(iv.Lo, 0) || math.IsInf(iv.Hi, 0) {
		return apperrors.Newf(apperrors.CodeDegenerateInterval, "non-finite bounds %s", iv)
	}
	if iv.Lo < 0 {
		return apperrors.Newf(apperrors.CodeDegenerateInterval, "negative lower bound %s", iv)
	}
	if iv.Lo >= iv.Hi {
		return apperrors.Newf(apperrors.CodeDegenerateInterval, "empty interval %s", iv)
	}
	return nil
}

// String formats the interval with four decimals.
func (iv Interval) String() string {
	return fmt.Sprintf("[%.4f, %.4f]", iv.Lo, iv.Hi)
}
