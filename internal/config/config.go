// Package config resolves command configuration from ASYNCLANES_* environment
// variables and command-line flags, flags taking precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/comalice/asynclanes/internal/primitives"
	"github.com/comalice/asynclanes/timeline"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the command configuration.
type Config struct {
	Mode         string  `env:"ASYNCLANES_MODE"          envDefault:"ui"`
	Scenario     string  `env:"ASYNCLANES_SCENARIO"      envDefault:"io_await_readasync"`
	ScenarioFile string  `env:"ASYNCLANES_SCENARIO_FILE"`
	Speed        float64 `env:"ASYNCLANES_SPEED"         envDefault:"1"`
	Step         int     `env:"ASYNCLANES_STEP"          envDefault:"-1"`
	Format       string  `env:"ASYNCLANES_FORMAT"        envDefault:"json"`
	Out          string  `env:"ASYNCLANES_OUT"`
	Verbose      bool    `env:"ASYNCLANES_VERBOSE"`
	LogFile      string  `env:"ASYNCLANES_LOG_FILE"`
}

// ParseConfig parses the environment and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "environment mode: ui or server")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "built-in scenario id")
	fs.StringVar(&cfg.ScenarioFile, "file", cfg.ScenarioFile, "path to a scenario YAML file (overrides -scenario)")
	fs.Float64Var(&cfg.Speed, "speed", cfg.Speed, "playback speed multiplier")
	fs.IntVar(&cfg.Step, "step", cfg.Step, "replay up to this event index (negative: whole log)")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "export format: json, yaml or dot")
	fs.StringVar(&cfg.Out, "out", cfg.Out, "write the export to this file instead of stdout")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if _, err := primitives.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Speed < timeline.MinSpeed || c.Speed > timeline.MaxSpeed {
		return fmt.Errorf("%w: speed %v outside [%v, %v]", ErrInvalid, c.Speed, timeline.MinSpeed, timeline.MaxSpeed)
	}
	switch strings.ToLower(c.Format) {
	case "json", "yaml", "yml", "dot":
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalid, c.Format)
	}
	if c.Scenario == "" && c.ScenarioFile == "" {
		return fmt.Errorf("%w: a scenario id or file is required", ErrInvalid)
	}
	return nil
}

// EnvMode returns the parsed environment mode.
func (c Config) EnvMode() primitives.Mode {
	m, err := primitives.ParseMode(c.Mode)
	if err != nil {
		return primitives.ModeUI
	}
	return m
}

// NewLogger builds the process logger. Without a log file or verbose flag it
// is a no-op; logs never go to stdout, which belongs to command output.
func (c Config) NewLogger() (*zap.Logger, error) {
	if c.LogFile == "" && !c.Verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if c.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if c.LogFile != "" {
		cfg.OutputPaths = []string{c.LogFile}
		cfg.ErrorOutputPaths = []string{c.LogFile}
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
