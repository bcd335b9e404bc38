// Package config provides application configuration for pyproject-kernel.
//
// This is the launcher's own configuration: kernelspec defaults, timeouts and
// logging. Per-project settings live in pyproject.toml and are handled by the
// projectconfig package.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/telemetry"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "PYPROJECT_LOCAL_KERNEL_"

// EnvDebug enables debug logging when set to anything except "" and "0".
const EnvDebug = EnvPrefix + "DEBUG"

// Defaults.
const (
	DefaultUseVenv       = ".venv"
	DefaultHatchTimeout  = 3 * time.Second
	DefaultSanityTimeout = 15 * time.Second
)

// Config holds the complete launcher configuration.
type Config struct {
	// Debug lifts logging to debug level.
	Debug bool `koanf:"debug"`

	// UseVenv is the venv directory used by the use-venv kernelspec.
	UseVenv string `koanf:"use_venv"`

	// SanityCheck is the default for projects that do not set sanity-check.
	SanityCheck bool `koanf:"sanity_check"`

	// HatchTimeout bounds the `hatch env find` lookup.
	HatchTimeout time.Duration `koanf:"hatch_timeout"`

	// SanityTimeout bounds the ipykernel probe.
	SanityTimeout time.Duration `koanf:"sanity_timeout"`

	Logging LoggingConfig `koanf:"logging"`

	Telemetry telemetry.Config `koanf:"telemetry"`
}

// LoggingConfig holds logging settings in their textual form.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Output string `koanf:"output"`

	// OTEL bridges log entries to the telemetry log provider during launch.
	OTEL bool `koanf:"otel"`
}

// Validate validates the configuration.
//
// Returns an error if:
//   - a timeout is not positive
//   - the log level does not parse
//   - the log format or output is unknown
//   - telemetry is enabled with an unusable exporter setup
func (c *Config) Validate() error {
	if c.HatchTimeout <= 0 {
		return errors.New("hatch timeout must be positive")
	}
	if c.SanityTimeout <= 0 {
		return errors.New("sanity timeout must be positive")
	}
	if _, err := logging.LevelFromString(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	if err := c.loggingConfig(zapcore.InfoLevel).Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}
	return nil
}

// LoggerConfig converts the textual logging settings, applying the debug toggle.
func (c *Config) LoggerConfig() (*logging.Config, error) {
	level, err := logging.LevelFromString(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	cfg := c.loggingConfig(logging.EffectiveLevel(level, c.Debug))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loggingConfig(level zapcore.Level) *logging.Config {
	cfg := logging.NewDefaultConfig()
	cfg.Level = level
	if c.Logging.Format != "" {
		cfg.Format = c.Logging.Format
	}
	if c.Logging.Output != "" {
		cfg.Output = c.Logging.Output
	}
	cfg.OTEL = c.Logging.OTEL
	return cfg
}

// DebugEnabled interprets the debug toggle value: anything except "" and "0".
func DebugEnabled(value string) bool {
	return value != "" && value != "0"
}
