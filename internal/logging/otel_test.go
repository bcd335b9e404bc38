package logging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingProvider keeps every emitted log record.
type recordingProvider struct {
	embedded.LoggerProvider

	mu      sync.Mutex
	scopes  []string
	records []log.Record
}

func (p *recordingProvider) Logger(name string, _ ...log.LoggerOption) log.Logger {
	p.mu.Lock()
	p.scopes = append(p.scopes, name)
	p.mu.Unlock()
	return &recordingLogger{provider: p}
}

func (p *recordingProvider) Records() []log.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]log.Record(nil), p.records...)
}

type recordingLogger struct {
	embedded.Logger
	provider *recordingProvider
}

func (l *recordingLogger) Emit(_ context.Context, r log.Record) {
	l.provider.mu.Lock()
	l.provider.records = append(l.provider.records, r.Clone())
	l.provider.mu.Unlock()
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool { return true }

func recordAttr(r log.Record, key string) (string, bool) {
	var val string
	var found bool
	r.WalkAttributes(func(kv log.KeyValue) bool {
		if kv.Key == key {
			val, found = kv.Value.AsString(), true
			return false
		}
		return true
	})
	return val, found
}

func newObservedLogger(cfg *Config) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(cfg.Level)
	return &Logger{zap: zap.New(core), config: cfg}, observed
}

func TestLogger_WithLoggerProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.OTEL = true
	base, observed := newObservedLogger(cfg)
	provider := &recordingProvider{}

	logger := base.WithLoggerProvider(provider)
	require.NotSame(t, base, logger)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := WithLaunchID(trace.ContextWithSpanContext(context.Background(), sc), "abc-123")
	logger.Info(ctx, "Launching kernel", zap.String("cwd", "/p"))
	logger.Debug(ctx, "below the configured level")

	assert.Equal(t, 1, observed.Len(), "console output is kept")
	assert.Equal(t, []string{DefaultName}, provider.scopes)

	records := provider.Records()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "Launching kernel", rec.Body().AsString())
	assert.Equal(t, log.SeverityInfo, rec.Severity())

	for key, want := range map[string]string{
		"launch_id": "abc-123",
		"trace_id":  sc.TraceID().String(),
		"span_id":   sc.SpanID().String(),
		"cwd":       "/p",
	} {
		got, ok := recordAttr(rec, key)
		assert.True(t, ok, "missing attribute %s", key)
		assert.Equal(t, want, got, key)
	}
}

func TestLogger_WithLoggerProviderDisabled(t *testing.T) {
	t.Run("otel output off", func(t *testing.T) {
		base, _ := newObservedLogger(NewDefaultConfig())
		provider := &recordingProvider{}

		logger := base.WithLoggerProvider(provider)
		assert.Same(t, base, logger)
		logger.Error(context.Background(), "not bridged")
		assert.Empty(t, provider.Records())
	})

	t.Run("nil provider", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.OTEL = true
		base, _ := newObservedLogger(cfg)
		assert.Same(t, base, base.WithLoggerProvider(nil))
	})
}

func TestNewOTelCore_Level(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = zapcore.WarnLevel
	core := newOTelCore(cfg, &recordingProvider{})

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
}
