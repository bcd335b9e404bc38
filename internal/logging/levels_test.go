package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestTraceLevel(t *testing.T) {
	assert.Equal(t, zapcore.Level(-2), TraceLevel)
	assert.True(t, TraceLevel.Enabled(zapcore.DebugLevel))
	assert.False(t, zapcore.DebugLevel.Enabled(TraceLevel))
}

func TestLevelFromString_ValidLevels(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected zapcore.Level
	}{
		{"trace", "trace", TraceLevel},
		{"trace uppercase", "TRACE", TraceLevel},
		{"debug", "debug", zapcore.DebugLevel},
		{"info", "info", zapcore.InfoLevel},
		{"warn", "warn", zapcore.WarnLevel},
		{"error", "error", zapcore.ErrorLevel},
		{"mixed case", "InFo", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := LevelFromString(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFromString_InvalidLevel(t *testing.T) {
	for _, input := range []string{"invalid", "123", "info extra"} {
		t.Run(input, func(t *testing.T) {
			level, err := LevelFromString(input)
			assert.Error(t, err)
			assert.Equal(t, zapcore.InfoLevel, level)
		})
	}
}

func TestEffectiveLevel(t *testing.T) {
	tests := []struct {
		name       string
		configured zapcore.Level
		debug      bool
		expected   zapcore.Level
	}{
		{"info without toggle", zapcore.InfoLevel, false, zapcore.InfoLevel},
		{"info with toggle", zapcore.InfoLevel, true, zapcore.DebugLevel},
		{"warn with toggle", zapcore.WarnLevel, true, zapcore.DebugLevel},
		{"trace kept with toggle", TraceLevel, true, TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EffectiveLevel(tt.configured, tt.debug))
		})
	}
}
