// internal/logging/otel.go
package logging

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WithLoggerProvider returns a logger that writes to its existing output and
// also emits each entry as an OpenTelemetry log record. It returns l
// unchanged when OTEL output is off or provider is nil.
func (l *Logger) WithLoggerProvider(provider log.LoggerProvider) *Logger {
	if provider == nil || !l.config.OTEL {
		return l
	}
	core := newOTelCore(l.config, provider)
	return &Logger{
		zap: l.zap.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		})),
		config: l.config,
	}
}

// newOTelCore bridges zap entries at or above cfg.Level to provider.
func newOTelCore(cfg *Config, provider log.LoggerProvider) zapcore.Core {
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}
	var core zapcore.Core = otelzap.NewCore(name, otelzap.WithLoggerProvider(provider))
	// Fails when the provider itself drops levels cfg.Level allows; its own
	// filtering then stands.
	if leveled, err := zapcore.NewIncreaseLevelCore(core, cfg.Level); err == nil {
		core = leveled
	}
	return core
}
