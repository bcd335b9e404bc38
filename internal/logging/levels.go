// internal/logging/levels.go
package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel is a custom level below Debug for ultra-verbose logging.
// Value: -2 (Debug is -1, Info is 0)
//
// Used for per-predicate classification decisions and raw manifest lookups.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a string into a zapcore.Level, supporting "trace".
func LevelFromString(level string) (zapcore.Level, error) {
	if strings.EqualFold(level, "trace") {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// EffectiveLevel lowers configured to Debug when the debug toggle is on.
// A configured level that is already more verbose is kept.
func EffectiveLevel(configured zapcore.Level, debug bool) zapcore.Level {
	if debug && configured > zapcore.DebugLevel {
		return zapcore.DebugLevel
	}
	return configured
}
