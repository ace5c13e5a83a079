package model

import (
	"time"
)

// Summary holds the descriptive statistics of a single Gamma distribution.
// All fields are derived from (Shape, Rate) and the coverage.
type Summary struct {
	Name     string  `json:"name" yaml:"name"`
	Shape    float64 `json:"shape" yaml:"shape"`
	Rate     float64 `json:"rate" yaml:"rate"`
	Scale    float64 `json:"scale" yaml:"scale"`
	Coverage float64 `json:"coverage" yaml:"coverage"`

	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Mode   float64 `json:"mode" yaml:"mode"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`

	EqualTailed Interval `json:"equal_tailed" yaml:"equal_tailed"`

	// HPDI is nil when the solver failed; HPDIError then holds the reason.
	HPDI           *Interval `json:"hpdi,omitempty" yaml:"hpdi,omitempty"`
	HPDIOneSided   bool      `json:"hpdi_one_sided,omitempty" yaml:"hpdi_one_sided,omitempty"`
	HPDIIterations int       `json:"hpdi_iterations,omitempty" yaml:"hpdi_iterations,omitempty"`
	HPDIError      string    `json:"hpdi_error,omitempty" yaml:"hpdi_error,omitempty"`

	// Residuals of CDF(hi)-CDF(lo)-p and log f(lo)-log f(hi) at the solution.
	HPDIMassResidual    float64 `json:"hpdi_mass_residual,omitempty" yaml:"hpdi_mass_residual,omitempty"`
	HPDIDensityResidual float64 `json:"hpdi_density_residual,omitempty" yaml:"hpdi_density_residual,omitempty"`
}

// HasHPDI reports whether the highest-density interval was solved.
func (s *Summary) HasHPDI() bool {
	return s != nil && s.HPDI != nil
}

// DataStats describes the observed counts.
type DataStats struct {
	Count    int     `json:"count" yaml:"count"`
	Sum      int     `json:"sum" yaml:"sum"`
	Min      int     `json:"min" yaml:"min"`
	Max      int     `json:"max" yaml:"max"`
	Mean     float64 `json:"mean" yaml:"mean"`
	Variance float64 `json:"variance" yaml:"variance"`
}

// Report is the outcome of one prior-to-posterior update.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Coverage  float64   `json:"coverage" yaml:"coverage"`

	Data      DataStats `json:"data" yaml:"data"`
	Prior     *Summary  `json:"prior" yaml:"prior"`
	Posterior *Summary  `json:"posterior" yaml:"posterior"`

	PlotFile string                 `json:"plot_file,omitempty" yaml:"plot_file,omitempty"`
	Timing   map[string]interface{} `json:"timing,omitempty" yaml:"timing,omitempty"`
}
