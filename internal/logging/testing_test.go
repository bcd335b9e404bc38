package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestTestLogger_Creation(t *testing.T) {
	tl := NewTestLogger()
	assert.NotNil(t, tl.Logger)
	assert.NotNil(t, tl.observed)
}

func TestTestLogger_AssertLogged(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Info(ctx, "test message", zap.String("key", "value"))

	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "test message")
}

func TestTestLogger_AssertField(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Warn(ctx, "ignoring unknown configuration key", zap.String("key", "colour"))

	tl.AssertField(t, "unknown configuration", "key", "colour")
}

func TestTestLogger_AssertLaunchCorrelation(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLaunchID(context.Background(), "3f1c")

	tl.Debug(ctx, "found project")

	tl.AssertLaunchCorrelation(t, "found project")
}

func TestTestLogger_Reset(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "one")
	assert.Len(t, tl.All(), 1)

	tl.Reset()
	assert.Empty(t, tl.All())
}
