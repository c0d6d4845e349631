// Package config loads curvesketch settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/curvesketch"
	"github.com/njchilds90/curvesketch/analysis"
	"github.com/njchilds90/curvesketch/plot"
)

// Config holds all curvesketch configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Solve    SolveConfig    `yaml:"solve"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Plot     PlotConfig     `yaml:"plot"`
	Render   RenderConfig   `yaml:"render"`
	Server   ServerConfig   `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// SolveConfig bounds the root search for non-polynomial derivatives.
type SolveConfig struct {
	WindowMin float64       `yaml:"window_min"`
	WindowMax float64       `yaml:"window_max" validate:"gtfield=WindowMin"`
	Samples   int           `yaml:"samples" validate:"min=10,max=1000000"`
	MaxRoots  int           `yaml:"max_roots" validate:"min=1,max=10000"`
	Timeout   time.Duration `yaml:"timeout" validate:"min=0"`
}

type AnalysisConfig struct {
	ZeroTolerance     float64 `yaml:"zero_tolerance" validate:"gte=0,lt=1"`
	VerifyInflections bool    `yaml:"verify_inflections"`
}

type PlotConfig struct {
	Samples    int     `yaml:"samples" validate:"min=2,max=100000"`
	Padding    float64 `yaml:"padding" validate:"gt=0"`
	DefaultMin float64 `yaml:"default_min"`
	DefaultMax float64 `yaml:"default_max" validate:"gtfield=DefaultMin"`
}

type RenderConfig struct {
	Theme  string `yaml:"theme" validate:"oneof=dark light"`
	Width  int    `yaml:"width" validate:"min=8,max=400"`
	Height int    `yaml:"height" validate:"min=4,max=200"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"min=1"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	s := curvesketch.DefaultSolveOptions()
	a := analysis.DefaultOptions()
	p := plot.DefaultOptions()
	return &Config{
		Log: LogConfig{Level: "info", Format: "console"},
		Solve: SolveConfig{
			WindowMin: s.WindowMin,
			WindowMax: s.WindowMax,
			Samples:   s.Samples,
			MaxRoots:  s.MaxRoots,
			Timeout:   s.Timeout,
		},
		Analysis: AnalysisConfig{ZeroTolerance: a.ZeroTolerance},
		Plot: PlotConfig{
			Samples:    p.Samples,
			Padding:    p.Padding,
			DefaultMin: p.DefaultMin,
			DefaultMax: p.DefaultMax,
		},
		Render: RenderConfig{Theme: "dark", Width: 64, Height: 20},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
	}
}

var validate = validator.New()

// Load reads a YAML file over the defaults and validates the result. An
// empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Save writes c as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) SolveOptions() curvesketch.SolveOptions {
	return curvesketch.SolveOptions{
		WindowMin: c.Solve.WindowMin,
		WindowMax: c.Solve.WindowMax,
		Samples:   c.Solve.Samples,
		MaxRoots:  c.Solve.MaxRoots,
		Timeout:   c.Solve.Timeout,
	}
}

func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		Solve:             c.SolveOptions(),
		ZeroTolerance:     c.Analysis.ZeroTolerance,
		VerifyInflections: c.Analysis.VerifyInflections,
	}
}

func (c *Config) PlotOptions() plot.Options {
	return plot.Options{
		Samples:    c.Plot.Samples,
		Padding:    c.Plot.Padding,
		DefaultMin: c.Plot.DefaultMin,
		DefaultMax: c.Plot.DefaultMax,
	}
}
