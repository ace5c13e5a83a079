// Package config loads the analysis configuration from YAML files and
// PGAMMA_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/poisson-gamma/pkg/errors"
	"github.com/poisson-gamma/pkg/pprof"
)

// EnvPrefix prefixes environment overrides, e.g. PGAMMA_PRIOR_SHAPE.
const EnvPrefix = "PGAMMA"

// Config holds all configuration for the application.
type Config struct {
	Prior    PriorConfig    `mapstructure:"prior"`
	Data     DataConfig     `mapstructure:"data"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Solver   SolverConfig   `mapstructure:"solver"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
	Pprof    pprof.Config   `mapstructure:"pprof"`

	// Source is the config file that was read; empty when only defaults
	// and environment were used.
	Source string `mapstructure:"-"`
}

// PriorConfig is the Gamma prior over the Poisson rate.
type PriorConfig struct {
	Shape float64 `mapstructure:"shape"`
	Rate  float64 `mapstructure:"rate"`
}

// DataConfig controls the synthetic data drawn when no counts are given.
type DataConfig struct {
	Rate float64 `mapstructure:"rate"`
	Size int     `mapstructure:"size"`
	Seed uint64  `mapstructure:"seed"`
	// CountsFile, when set, is read instead of sampling.
	CountsFile string `mapstructure:"counts_file"`
}

// AnalysisConfig holds the credible mass.
type AnalysisConfig struct {
	Coverage float64 `mapstructure:"coverage"`
}

// SolverConfig tunes the HPDI solver.
type SolverConfig struct {
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`
	Boundary      string  `mapstructure:"boundary"` // reanchor or reject
}

// BatchConfig controls the batch runner.
type BatchConfig struct {
	Workers int           `mapstructure:"workers"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Dir        string  `mapstructure:"dir"`
	Format     string  `mapstructure:"format"` // table, json or yaml
	Plot       bool    `mapstructure:"plot"`
	PlotFormat string  `mapstructure:"plot_format"`
	WidthIn    float64 `mapstructure:"width_in"`
	HeightIn   float64 `mapstructure:"height_in"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Color bool   `mapstructure:"color"`
}

// Load reads configuration from configPath, or from config.yaml in the
// standard locations when configPath is empty. A missing file falls back
// to defaults.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/poisson-gamma")
	}

	source := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read config file", err)
		}
	} else {
		source = v.ConfigFileUsed()
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.Source = source
	return cfg, nil
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read config", err)
	}
	return decode(v)
}

// Default returns the configuration built from defaults and environment.
func Default() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("prior.shape", 1.0)
	v.SetDefault("prior.rate", 1.0)

	v.SetDefault("data.rate", 3.0)
	v.SetDefault("data.size", 50)
	v.SetDefault("data.seed", 42)
	v.SetDefault("data.counts_file", "")

	v.SetDefault("analysis.coverage", 0.95)

	v.SetDefault("solver.tolerance", 1e-10)
	v.SetDefault("solver.max_iterations", 100)
	v.SetDefault("solver.boundary", "reanchor")

	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.timeout", time.Duration(0))

	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.format", "table")
	v.SetDefault("output.plot", true)
	v.SetDefault("output.plot_format", "png")
	v.SetDefault("output.width_in", 6.0)
	v.SetDefault("output.height_in", 4.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.color", true)

	v.SetDefault("pprof.enabled", false)
	v.SetDefault("pprof.output_dir", "./pprof")
	v.SetDefault("pprof.profiles", []string{"cpu", "heap"})
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(positive(c.Prior.Shape), "prior.shape must be positive, got %v", c.Prior.Shape)
	check(positive(c.Prior.Rate), "prior.rate must be positive, got %v", c.Prior.Rate)
	check(positive(c.Data.Rate), "data.rate must be positive, got %v", c.Data.Rate)
	check(c.Data.Size >= 0, "data.size must be non-negative, got %d", c.Data.Size)
	check(c.Analysis.Coverage > 0 && c.Analysis.Coverage < 1, "analysis.coverage must lie in (0, 1), got %v", c.Analysis.Coverage)
	check(positive(c.Solver.Tolerance), "solver.tolerance must be positive, got %v", c.Solver.Tolerance)
	check(c.Solver.MaxIterations > 0, "solver.max_iterations must be positive, got %d", c.Solver.MaxIterations)
	check(oneOf(c.Solver.Boundary, "reanchor", "reject"), "solver.boundary must be reanchor or reject, got %q", c.Solver.Boundary)
	check(c.Batch.Workers >= 0, "batch.workers must be non-negative, got %d", c.Batch.Workers)
	check(c.Batch.Timeout >= 0, "batch.timeout must be non-negative, got %v", c.Batch.Timeout)
	check(oneOf(c.Output.Format, "table", "json", "yaml"), "output.format must be table, json or yaml, got %q", c.Output.Format)
	check(oneOf(c.Output.PlotFormat, "png", "svg", "pdf"), "output.plot_format must be png, svg or pdf, got %q", c.Output.PlotFormat)
	check(positive(c.Output.WidthIn) && positive(c.Output.HeightIn), "output plot size must be positive, got %vx%v", c.Output.WidthIn, c.Output.HeightIn)
	check(oneOf(c.Log.Level, "debug", "info", "warn", "warning", "error"), "log.level %q is not recognised", c.Log.Level)
	if err := c.Pprof.Validate(); err != nil {
		problems = append(problems, "pprof: "+err.Error())
	}

	if len(problems) > 0 {
		return apperrors.New(apperrors.CodeConfigError, "config validation failed: "+strings.Join(problems, "; "))
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func oneOf(v string, allowed ...string) bool {
	v = strings.ToLower(v)
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
