package model

import (
	"fmt"
	"math"

	apperrors "github.com/poisson-gamma/pkg/errors"
)

// BatchJob is one independent HPDI problem. Exactly one of Rate and
// Scale must be set.
type BatchJob struct {
	Name     string  `json:"name" yaml:"name"`
	Shape    float64 `json:"shape" yaml:"shape"`
	Rate     float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Scale    float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Coverage float64 `json:"coverage,omitempty" yaml:"coverage,omitempty"`
}

// ResolveScale returns the scale parameter of the job.
func (j BatchJob) ResolveScale() (float64, error) {
	switch {
	case j.Rate != 0 && j.Scale != 0:
		return 0, apperrors.Newf(apperrors.CodeInvalidInput, "job %q: set either rate or scale, not both", j.Name)
	case j.Scale != 0:
		return j.Scale, nil
	case j.Rate != 0:
		return 1 / j.Rate, nil
	default:
		return 0, apperrors.Newf(apperrors.CodeInvalidInput, "job %q: rate or scale is required", j.Name)
	}
}

// Label returns the job name, or a description of its parameters when unnamed.
func (j BatchJob) Label() string {
	if j.Name != "" {
		return j.Name
	}
	scale, err := j.ResolveScale()
	if err != nil || math.IsInf(scale, 0) {
		return fmt.Sprintf("gamma(shape=%g)", j.Shape)
	}
	return fmt.Sprintf("gamma(shape=%g, scale=%g)", j.Shape, scale)
}

// BatchResult holds the outcome of one BatchJob.
type BatchResult struct {
	Job         BatchJob  `json:"job" yaml:"job"`
	EqualTailed *Interval `json:"equal_tailed,omitempty" yaml:"equal_tailed,omitempty"`
	HPDI        *Interval `json:"hpdi,omitempty" yaml:"hpdi,omitempty"`
	OneSided    bool      `json:"one_sided,omitempty" yaml:"one_sided,omitempty"`
	Iterations  int       `json:"iterations" yaml:"iterations"`
	ErrorCode   string    `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs  float64   `json:"duration_ms" yaml:"duration_ms"`
}

// Failed reports whether the job produced no interval.
func (r *BatchResult) Failed() bool {
	return r.Error != ""
}

// BatchReport aggregates all results of a batch run.
type BatchReport struct {
	Results   []BatchResult `json:"results" yaml:"results"`
	Total     int           `json:"total" yaml:"total"`
	Converged int           `json:"converged" yaml:"converged"`
	OneSided  int           `json:"one_sided" yaml:"one_sided"`
	Failed    int           `json:"failed" yaml:"failed"`
	Elapsed   string        `json:"elapsed" yaml:"elapsed"`
}
