package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/poisson-gamma/internal/hpdi"
	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
	"github.com/poisson-gamma/pkg/parallel"
	"github.com/poisson-gamma/pkg/telemetry"
	"github.com/poisson-gamma/pkg/utils"
)

// Runner fans jobs out over a worker pool sharing one Solver.
type Runner struct {
	solver *hpdi.Solver
	pool   parallel.PoolConfig
	logger utils.Logger

	lastMetrics parallel.PoolMetrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the pool size; n <= 0 keeps the default.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.pool = r.pool.WithWorkers(n)
	}
}

// WithTimeout bounds the whole run.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.pool = r.pool.WithTimeout(d)
	}
}

// WithLogger sets the logger.
func WithLogger(l utils.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner. A nil solver uses the defaults.
func NewRunner(solver *hpdi.Solver, opts ...Option) *Runner {
	if solver == nil {
		solver = hpdi.NewSolver()
	}
	r := &Runner{
		solver: solver,
		pool:   parallel.DefaultPoolConfig().WithMetrics(),
		logger: &utils.NullLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run solves every job. Per-job failures are recorded in the report; the
// returned error is only set when ctx ended before all jobs ran.
func (r *Runner) Run(ctx context.Context, jobs []model.BatchJob) (report *model.BatchReport, err error) {
	ctx, span := telemetry.StartSpan(ctx, "batch.run", attribute.Int("batch.jobs", len(jobs)))
	defer func() { telemetry.EndSpan(span, err) }()

	start := time.Now()
	step := max(len(jobs)/10, 1)
	cfg := r.pool.WithProgress(func(completed, total int) {
		if completed%step == 0 || completed == total {
			r.logger.Debug("batch progress %d/%d", completed, total)
		}
	})
	pool := parallel.NewWorkerPool[model.BatchJob, model.BatchResult](cfg)

	r.logger.Info("solving %d jobs on %d workers", len(jobs), pool.Workers())
	results := pool.ExecuteFunc(ctx, jobs, func(ctx context.Context, job model.BatchJob) (model.BatchResult, error) {
		res := r.solve(job)
		if res.Failed() {
			return res, errors.New(res.Error)
		}
		return res, nil
	})

	report = &model.BatchReport{
		Results: make([]model.BatchResult, len(results)),
		Total:   len(results),
	}
	for i, tr := range results {
		res := tr.Result
		res.Job = tr.Input
		if tr.Error != nil && !res.Failed() {
			// Never started: the context ended first.
			res.ErrorCode = apperrors.GetErrorCode(tr.Error)
			res.Error = tr.Error.Error()
		}
		report.Results[i] = res

		switch {
		case res.Failed():
			report.Failed++
		case res.OneSided:
			report.Converged++
			report.OneSided++
		default:
			report.Converged++
		}
	}
	report.Elapsed = time.Since(start).Round(time.Microsecond).String()

	r.lastMetrics = pool.Metrics()
	r.logger.Info("batch done: %d converged (%d one-sided), %d failed in %s",
		report.Converged, report.OneSided, report.Failed, report.Elapsed)
	span.SetAttributes(
		attribute.Int("batch.converged", report.Converged),
		attribute.Int("batch.failed", report.Failed),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, fmt.Errorf("batch interrupted: %w", ctxErr)
	}
	return report, nil
}

// Metrics returns the pool statistics of the last Run.
func (r *Runner) Metrics() parallel.PoolMetrics {
	return r.lastMetrics
}

func (r *Runner) solve(job model.BatchJob) (res model.BatchResult) {
	start := time.Now()
	res.Job = job
	defer func() {
		res.DurationMs = float64(time.Since(start).Microseconds()) / 1000
	}()

	fail := func(err error) model.BatchResult {
		res.ErrorCode = apperrors.GetErrorCode(err)
		res.Error = err.Error()
		r.logger.Warn("job %s failed: %v", job.Label(), err)
		return res
	}

	scale, err := job.ResolveScale()
	if err != nil {
		return fail(err)
	}
	g, err := gamma.FromScale(job.Shape, scale)
	if err != nil {
		return fail(err)
	}
	eti, err := g.EqualTailed(job.Coverage)
	if err != nil {
		return fail(err)
	}
	res.EqualTailed = &eti

	sol, err := r.solver.SolveGamma(g, eti, job.Coverage)
	if err != nil {
		return fail(err)
	}
	res.HPDI = &sol.Interval
	res.OneSided = sol.OneSided
	res.Iterations = sol.Iterations
	return res
}
