package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/poisson-gamma/internal/batch"
	"github.com/poisson-gamma/pkg/model"
	"github.com/poisson-gamma/pkg/writer"
)

type batchOptions struct {
	inputFile  string
	outputFile string
	workers    int
	timeout    time.Duration
	format     string
}

func newBatchCmd(a *app) *cobra.Command {
	o := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Solve many HPDI problems in parallel",
		Long: `Solve the HPDI of every job in a YAML or JSON batch file.

Each job is {name, shape, rate | scale, coverage}; a job without coverage
uses the file-level coverage, then the configured one. Jobs run on a worker
pool and results keep the input order. A failed job is reported with its
error code and does not stop the others.

Example file:

  coverage: 0.95
  jobs:
    - {name: reference, shape: 147, rate: 51}
    - {name: narrow, shape: 50, scale: 0.02, coverage: 0.9}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, a, o)
		},
	}

	binName := BinName()
	cmd.Example = `  ` + binName + ` batch -f jobs.yaml
  ` + binName + ` batch -f jobs.json -o results.yaml --workers 8 --timeout 30s`

	f := cmd.Flags()
	f.StringVarP(&o.inputFile, "file", "f", "", "Batch file, YAML or JSON (required)")
	f.StringVarP(&o.outputFile, "output", "o", "", "Write results to this file (.json, .yaml)")
	f.IntVarP(&o.workers, "workers", "w", 0, "Number of workers (default from config)")
	f.DurationVar(&o.timeout, "timeout", 0, "Overall timeout, e.g. 30s (default from config)")
	f.StringVar(&o.format, "format", "", "Console format: table, json, yaml")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runBatch(cmd *cobra.Command, a *app, o *batchOptions) error {
	log := a.logger
	out, err := a.outputFormatter(o.format)
	if err != nil {
		return err
	}

	workers := a.cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		workers = o.workers
	}
	timeout := a.cfg.Batch.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = o.timeout
	}

	file, err := batch.LoadFile(o.inputFile)
	if err != nil {
		return err
	}
	jobs := file.Resolved(a.cfg.Analysis.Coverage)
	log.Info("Loaded %d jobs from %s", len(jobs), o.inputFile)

	solver, err := a.solver()
	if err != nil {
		return err
	}
	runner := batch.NewRunner(solver,
		batch.WithWorkers(workers),
		batch.WithTimeout(timeout),
		batch.WithLogger(log),
	)

	report, runErr := runner.Run(cmd.Context(), jobs)
	if report == nil {
		return runErr
	}

	if o.outputFile != "" {
		if err := writer.ForPath[*model.BatchReport](o.outputFile).WriteToFile(report, o.outputFile); err != nil {
			return err
		}
		log.Info("Results written to %s", o.outputFile)
	}

	if err := out.FormatBatch(report, cmd.OutOrStdout()); err != nil {
		return err
	}
	return runErr
}
