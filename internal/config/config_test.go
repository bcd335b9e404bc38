package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func validConfig() *Config {
	return &Config{
		UseVenv:       DefaultUseVenv,
		SanityCheck:   true,
		HatchTimeout:  DefaultHatchTimeout,
		SanityTimeout: DefaultSanityTimeout,
		Logging:       LoggingConfig{Level: "info", Format: "console", Output: "stderr"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "trace level", mutate: func(c *Config) { c.Logging.Level = "trace" }},
		{name: "zero hatch timeout", mutate: func(c *Config) { c.HatchTimeout = 0 }, wantErr: "hatch timeout"},
		{name: "negative sanity timeout", mutate: func(c *Config) { c.SanityTimeout = -time.Second }, wantErr: "sanity timeout"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "invalid logging config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_LoggerConfig(t *testing.T) {
	cfg := validConfig()
	lc, err := cfg.LoggerConfig()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lc.Level)
	assert.Equal(t, "console", lc.Format)
	assert.False(t, lc.OTEL)

	cfg.Logging.OTEL = true
	lc, err = cfg.LoggerConfig()
	require.NoError(t, err)
	assert.True(t, lc.OTEL)

	cfg.Debug = true
	lc, err = cfg.LoggerConfig()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lc.Level)

	cfg.Logging.Level = "trace"
	lc, err = cfg.LoggerConfig()
	require.NoError(t, err)
	assert.Equal(t, zapcore.Level(-2), lc.Level, "trace is more verbose than debug and is kept")
}

func TestDebugEnabled(t *testing.T) {
	assert.False(t, DebugEnabled(""))
	assert.False(t, DebugEnabled("0"))
	assert.True(t, DebugEnabled("1"))
	assert.True(t, DebugEnabled("false"), "any value other than empty and 0 enables debug")
}
