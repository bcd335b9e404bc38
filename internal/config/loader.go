package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/telemetry"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// flagKeys maps CLI flag names to config keys. Flags not listed are not
// configuration (e.g. -f connection file).
var flagKeys = map[string]string{
	"debug":          "debug",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"hatch-timeout":  "hatch_timeout",
	"sanity-timeout": "sanity_timeout",
	"sanity-check":   "sanity_check",
	"venv":           "use_venv",
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigPath is an explicit YAML file; it must exist. Empty means the
	// default path, which is optional.
	ConfigPath string

	// Flags are applied last. Only flags that were changed are used.
	Flags *pflag.FlagSet

	// LookupEnv reads the debug toggle. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load loads configuration from defaults, YAML file, environment variables
// and flags.
//
// Configuration precedence (highest to lowest):
//  1. CLI flags (--debug, --log-level, --hatch-timeout, ...)
//  2. Environment variables (PYPROJECT_LOCAL_KERNEL_USE_VENV, PYPROJECT_LOCAL_KERNEL_LOGGING_LEVEL, ...)
//  3. YAML config file (~/.config/pyproject-kernel/config.yaml)
//  4. Hardcoded defaults
//
// # Environment Variable Mapping
//
//	PYPROJECT_LOCAL_KERNEL_USE_VENV       -> use_venv
//	PYPROJECT_LOCAL_KERNEL_HATCH_TIMEOUT  -> hatch_timeout
//	PYPROJECT_LOCAL_KERNEL_LOGGING_LEVEL  -> logging.level
//
// PYPROJECT_LOCAL_KERNEL_DEBUG is not decoded as a boolean: any value other
// than "" and "0" enables debug logging.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	tel := telemetry.NewDefaultConfig()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"debug":          false,
		"use_venv":       DefaultUseVenv,
		"sanity_check":   true,
		"hatch_timeout":  DefaultHatchTimeout.String(),
		"sanity_timeout": DefaultSanityTimeout.String(),
		"logging.level":  "info",
		"logging.format": "console",
		"logging.output": "stderr",
		"logging.otel":   false,

		"telemetry.enabled":          tel.Enabled,
		"telemetry.endpoint":         tel.Endpoint,
		"telemetry.protocol":         tel.Protocol,
		"telemetry.insecure":         tel.Insecure,
		"telemetry.tls_skip_verify":  tel.TLSSkipVerify,
		"telemetry.service_name":     tel.ServiceName,
		"telemetry.sample_rate":      tel.SampleRate,
		"telemetry.metrics":          tel.Metrics,
		"telemetry.export_interval":  tel.ExportInterval.String(),
		"telemetry.shutdown_timeout": tel.ShutdownTimeout.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, required, err := configFilePath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := loadFile(k, configPath, required); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if v, ok := lookupEnv(EnvDebug); ok {
		if err := k.Set("debug", DebugEnabled(v)); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", EnvDebug, err)
		}
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps PYPROJECT_LOCAL_KERNEL_LOGGING_LEVEL to logging.level,
// PYPROJECT_LOCAL_KERNEL_TELEMETRY_ENABLED to telemetry.enabled and
// PYPROJECT_LOCAL_KERNEL_USE_VENV to use_venv. The debug toggle and the
// variable set for sanity-check child processes are skipped.
func envKey(s string) string {
	name := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	switch name {
	case "debug", "sanity_check", "fallback_message":
		return ""
	}
	for _, section := range []string{"logging", "telemetry"} {
		if rest, ok := strings.CutPrefix(name, section+"_"); ok {
			return section + "." + rest
		}
	}
	return name
}

// DefaultConfigPath returns ~/.config/pyproject-kernel/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pyproject-kernel", "config.yaml"), nil
}

func configFilePath(explicit string) (string, bool, error) {
	if explicit != "" {
		return explicit, true, nil
	}
	path, err := DefaultConfigPath()
	if err != nil {
		// No home directory is not fatal for a kernel launcher
		return "", false, nil
	}
	return path, false, nil
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return nil
}
