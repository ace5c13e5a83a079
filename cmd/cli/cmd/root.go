package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/poisson-gamma/internal/formatter"
	"github.com/poisson-gamma/internal/hpdi"
	"github.com/poisson-gamma/pkg/config"
	"github.com/poisson-gamma/pkg/pprof"
	"github.com/poisson-gamma/pkg/telemetry"
	"github.com/poisson-gamma/pkg/utils"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	configPath    string
	verbose       bool
	noColor       bool
	pprofEnabled  bool
	pprofDir      string
	pprofProfiles string

	cfg      *config.Config
	logger   utils.Logger
	shutdown telemetry.ShutdownFunc
	profiler *pprof.Session
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: &utils.NullLogger{}}

	rootCmd := &cobra.Command{
		Use:   BinName(),
		Short: "Poisson rate inference with a conjugate Gamma prior",
		Long: `Bayesian inference for the rate of Poisson count data.

A Gamma prior is updated with observed (or simulated) counts. The tool reports
the posterior mean, median, mode, standard deviation, the equal-tailed credible
interval and the highest posterior density interval (HPDI), and plots the
prior against the posterior.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: config.yaml in ., ./configs, /etc/poisson-gamma)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	// Pprof flags
	rootCmd.PersistentFlags().BoolVar(&a.pprofEnabled, "pprof", false, "Record Go runtime profiles of this run")
	rootCmd.PersistentFlags().StringVar(&a.pprofDir, "pprof-dir", "", "Output directory for profiles (default from config)")
	rootCmd.PersistentFlags().StringVar(&a.pprofProfiles, "pprof-profiles", "", "Comma-separated profile types: cpu,heap,goroutine,block,mutex,allocs")

	binName := BinName()
	rootCmd.Example = `  # Simulate 50 draws from Poisson(3) and update a Gamma(1, 1) prior
  ` + binName + ` analyze

  # Update with counts from a file and print JSON
  ` + binName + ` analyze --counts ./counts.txt --format json

  # HPDI of a single Gamma distribution
  ` + binName + ` hpdi --shape 147 --rate 51 --coverage 0.95

  # Solve many intervals in parallel
  ` + binName + ` batch -f jobs.yaml -o results.json

  # Profile a large batch
  ` + binName + ` batch -f jobs.yaml --pprof --pprof-profiles cpu,allocs`

	rootCmd.AddCommand(
		newAnalyzeCmd(a),
		newHPDICmd(a),
		newBatchCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := utils.ParseLogLevel(cfg.Log.Level)
	if a.verbose {
		level = utils.LevelDebug
	}
	if cfg.Log.Color && !a.noColor {
		a.logger = utils.NewConsoleLogger(level)
	} else {
		a.logger = utils.NewDefaultLogger(level, cmd.ErrOrStderr())
	}
	utils.SetGlobalLogger(a.logger)

	if cfg.Source != "" {
		a.logger.Debug("loaded config from %s", cfg.Source)
	} else {
		a.logger.Debug("no config file found, using defaults")
	}

	shutdown, err := telemetry.Init(cmd.Context())
	if err != nil {
		a.logger.Warn("tracing disabled: %v", err)
	}
	a.shutdown = shutdown

	return a.startProfiler(cmd)
}

func (a *app) startProfiler(cmd *cobra.Command) error {
	pcfg := a.cfg.Pprof
	flags := cmd.Flags()
	if flags.Changed("pprof") {
		pcfg.Enabled = a.pprofEnabled
	}
	if flags.Changed("pprof-dir") {
		pcfg.OutputDir = a.pprofDir
	}
	if flags.Changed("pprof-profiles") {
		profiles, err := pprof.ParseProfileTypes(a.pprofProfiles)
		if err != nil {
			return err
		}
		pcfg.Profiles = profiles
	}

	session, err := pprof.Start(&pcfg)
	if err != nil {
		return err
	}
	a.profiler = session
	if pcfg.Enabled {
		a.logger.Info("pprof collection started (dir: %s)", pcfg.OutputDir)
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.profiler != nil {
		files, err := a.profiler.Stop()
		if err != nil {
			a.logger.Warn("failed to write profiles: %v", err)
		}
		for _, f := range files {
			a.logger.Info("pprof data saved to: %s", f)
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(cmd.Context()); err != nil {
			a.logger.Warn("failed to flush traces: %v", err)
		}
	}
	return nil
}

// solver builds an HPDI solver from the solver section of the config.
func (a *app) solver() (*hpdi.Solver, error) {
	policy, err := hpdi.ParseBoundaryPolicy(a.cfg.Solver.Boundary)
	if err != nil {
		return nil, err
	}
	return hpdi.NewSolver(
		hpdi.WithTolerance(a.cfg.Solver.Tolerance),
		hpdi.WithMaxIterations(a.cfg.Solver.MaxIterations),
		hpdi.WithBoundaryPolicy(policy),
		hpdi.WithLogger(a.logger.WithField("component", "hpdi")),
	), nil
}

// outputFormatter returns the formatter named by the flag, or the
// configured default when the flag is empty.
func (a *app) outputFormatter(name string) (formatter.Formatter, error) {
	if name == "" {
		name = a.cfg.Output.Format
	}
	return formatter.NewRegistry(a.cfg.Log.Color && !a.noColor).Lookup(name)
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
