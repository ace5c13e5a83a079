package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/poisson-gamma/internal/plot"
	"github.com/poisson-gamma/internal/posterior"
	"github.com/poisson-gamma/internal/sampler"
	"github.com/poisson-gamma/pkg/gamma"
	"github.com/poisson-gamma/pkg/model"
	"github.com/poisson-gamma/pkg/utils"
	"github.com/poisson-gamma/pkg/writer"
)

type analyzeOptions struct {
	countsFile string
	shape      float64
	rate       float64
	coverage   float64
	size       int
	dataRate   float64
	seed       uint64
	outputDir  string
	format     string
	noPlot     bool
	runID      string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	o := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Update a Gamma prior with Poisson counts and summarise the posterior",
		Long: `Update a Gamma prior with Poisson count data and summarise prior and posterior.

Counts are read from --counts (a file, or "-" for stdin) when given, otherwise
--size values are drawn from Poisson(--data-rate) with a fixed --seed.

For each run the command writes into <output>/<run-id>/:
  - summary.json   the full report
  - density.<fmt>  prior vs posterior density plot (unless --no-plot)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.applyConfig(cmd, a)
			return runAnalyze(cmd, a, o)
		},
	}

	binName := BinName()
	cmd.Example = `  # Defaults from config: Gamma(1, 1) prior, 50 draws from Poisson(3)
  ` + binName + ` analyze

  # Counts from a file, 90% intervals, JSON on stdout
  ` + binName + ` analyze --counts counts.txt --coverage 0.9 --format json

  # Informative prior and a reproducible simulation
  ` + binName + ` analyze --shape 20 --rate 10 --data-rate 2.5 --size 200 --seed 7`

	f := cmd.Flags()
	f.StringVar(&o.countsFile, "counts", "", `File of non-negative integer counts ("-" for stdin)`)
	f.Float64Var(&o.shape, "shape", 0, "Prior shape (default from config)")
	f.Float64Var(&o.rate, "rate", 0, "Prior rate (default from config)")
	f.Float64VarP(&o.coverage, "coverage", "p", 0, "Credible mass in (0, 1) (default from config)")
	f.IntVarP(&o.size, "size", "n", 0, "Number of simulated counts (default from config)")
	f.Float64Var(&o.dataRate, "data-rate", 0, "Poisson rate of simulated counts (default from config)")
	f.Uint64Var(&o.seed, "seed", 0, "Seed of the simulation (default from config)")
	f.StringVarP(&o.outputDir, "output", "o", "", "Output directory (default from config)")
	f.StringVarP(&o.format, "format", "f", "", "Console format: table, json, yaml")
	f.BoolVar(&o.noPlot, "no-plot", false, "Skip the density plot")
	f.StringVar(&o.runID, "run-id", "", "Run identifier (auto-generated if empty)")

	return cmd
}

// applyConfig fills every flag the user did not set from the loaded config.
func (o *analyzeOptions) applyConfig(cmd *cobra.Command, a *app) {
	f := cmd.Flags()
	cfg := a.cfg
	if !f.Changed("counts") {
		o.countsFile = cfg.Data.CountsFile
	}
	if !f.Changed("shape") {
		o.shape = cfg.Prior.Shape
	}
	if !f.Changed("rate") {
		o.rate = cfg.Prior.Rate
	}
	if !f.Changed("coverage") {
		o.coverage = cfg.Analysis.Coverage
	}
	if !f.Changed("size") {
		o.size = cfg.Data.Size
	}
	if !f.Changed("data-rate") {
		o.dataRate = cfg.Data.Rate
	}
	if !f.Changed("seed") {
		o.seed = cfg.Data.Seed
	}
	if !f.Changed("output") {
		o.outputDir = cfg.Output.Dir
	}
	if !f.Changed("no-plot") {
		o.noPlot = !cfg.Output.Plot
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
}

func runAnalyze(cmd *cobra.Command, a *app, o *analyzeOptions) error {
	log := a.logger
	out, err := a.outputFormatter(o.format)
	if err != nil {
		return err
	}

	prior, err := gamma.New(o.shape, o.rate)
	if err != nil {
		return fmt.Errorf("invalid prior: %w", err)
	}
	solver, err := a.solver()
	if err != nil {
		return err
	}

	runDir := filepath.Join(o.outputDir, o.runID)
	log.Info("=== Poisson/Gamma analysis ===")
	log.Info("Run ID:     %s", o.runID)
	log.Info("Prior:      gamma(shape=%g, rate=%g)", prior.Shape(), prior.Rate())
	log.Info("Coverage:   %g", o.coverage)
	log.Info("Output dir: %s", runDir)

	timer := utils.NewTimer("analyze")

	var counts []int
	err = timer.TimeFunc("sample", func() error {
		var serr error
		if o.countsFile != "" {
			log.Info("Counts:     %s", o.countsFile)
			counts, serr = sampler.ReadCountsFile(o.countsFile)
			return serr
		}
		log.Info("Counts:     %d draws from poisson(%g), seed %d", o.size, o.dataRate, o.seed)
		counts, serr = sampler.Poisson{Rate: o.dataRate, Seed: o.seed}.Draw(o.size)
		return serr
	})
	if err != nil {
		return err
	}

	analyzer, err := posterior.NewAnalyzer(prior, o.coverage,
		posterior.WithSolver(solver),
		posterior.WithAnalyzerLogger(log),
		posterior.WithTimer(timer),
	)
	if err != nil {
		return err
	}

	report, err := analyzer.Analyze(cmd.Context(), counts)
	if err != nil {
		return err
	}
	report.RunID = o.runID

	if !o.noPlot {
		err = timer.TimeFunc("plot", func() error {
			path, perr := savePlot(a, prior, report, runDir)
			if perr != nil {
				return perr
			}
			report.PlotFile = path
			log.Info("Plot written to %s", path)
			return nil
		})
		if err != nil {
			return err
		}
	}

	summaryPath := filepath.Join(runDir, "summary.json")
	err = timer.TimeFunc("write", func() error {
		report.Timing = timer.ToMap()
		return writer.NewPrettyJSONWriter[*model.Report]().WriteToFile(report, summaryPath)
	})
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	log.Info("Summary written to %s", summaryPath)
	timer.Log(log)

	return out.FormatReport(report, cmd.OutOrStdout())
}

func savePlot(a *app, prior gamma.Gamma, report *model.Report, dir string) (string, error) {
	post, err := gamma.New(report.Posterior.Shape, report.Posterior.Rate)
	if err != nil {
		return "", err
	}

	opts := plot.DefaultOptions()
	opts.Width = vg.Length(a.cfg.Output.WidthIn) * vg.Inch
	opts.Height = vg.Length(a.cfg.Output.HeightIn) * vg.Inch
	opts.Title = fmt.Sprintf("Prior vs posterior (%g%% intervals)", report.Coverage*100)

	p, err := plot.DensityPlot(prior, post, report.Posterior.HPDI, report.Posterior.EqualTailed, opts)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, "density."+a.cfg.Output.PlotFormat)
	if err := plot.Save(p, path, opts.Width, opts.Height); err != nil {
		return "", err
	}
	return path, nil
}
