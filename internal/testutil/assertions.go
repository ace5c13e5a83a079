package testutil

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
)

// AssertJSONEqual asserts that two JSON strings are semantically equal.
func AssertJSONEqual(t *testing.T, expected, actual string) {
	t.Helper()

	var expectedJSON, actualJSON interface{}

	if err := json.Unmarshal([]byte(expected), &expectedJSON); err != nil {
		t.Fatalf("failed to parse expected JSON: %v", err)
	}

	if err := json.Unmarshal([]byte(actual), &actualJSON); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}

	if !reflect.DeepEqual(expectedJSON, actualJSON) {
		expectedPretty, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualPretty, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("JSON not equal:\nExpected:\n%s\n\nActual:\n%s", expectedPretty, actualPretty)
	}
}

// AssertCoverage asserts |CDF(hi) - CDF(lo) - p| < tol.
func AssertCoverage(t *testing.T, g gamma.Gamma, iv model.Interval, p, tol float64) {
	t.Helper()
	if got := g.Mass(iv); math.Abs(got-p) >= tol {
		t.Errorf("coverage of %s is %.12f, want %.12f (tol %g)", iv, got, p, tol)
	}
}

// AssertEqualDensity asserts |f(lo) - f(hi)| < tol.
func AssertEqualDensity(t *testing.T, g gamma.Gamma, iv model.Interval, tol float64) {
	t.Helper()
	flo, fhi := g.Prob(iv.Lo), g.Prob(iv.Hi)
	if math.Abs(flo-fhi) >= tol {
		t.Errorf("density at %s differs: f(lo)=%.12g f(hi)=%.12g (tol %g)", iv, flo, fhi, tol)
	}
}

// AssertHPDI asserts both defining properties of a two-sided HPDI and that
// it is no wider than the equal-tailed interval.
func AssertHPDI(t *testing.T, g gamma.Gamma, iv model.Interval, p, tol float64) {
	t.Helper()
	if err := iv.Validate(); err != nil {
		t.Fatalf("invalid interval: %v", err)
	}
	AssertCoverage(t, g, iv, p, tol)
	AssertEqualDensity(t, g, iv, tol)

	eti, err := g.EqualTailed(p)
	if err != nil {
		t.Fatalf("equal-tailed interval: %v", err)
	}
	if iv.Width() > eti.Width()+tol {
		t.Errorf("hpdi %s (width %.9f) wider than equal-tailed %s (width %.9f)", iv, iv.Width(), eti, eti.Width())
	}
}
