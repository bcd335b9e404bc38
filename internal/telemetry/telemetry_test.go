package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	lognoop "go.opentelemetry.io/otel/log/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.False(t, tel.Enabled())
	assert.False(t, tel.Degraded())
	assert.NotNil(t, tel.TracerProvider())
	assert.NotNil(t, tel.MeterProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""

	tel, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestNew_ExportsThroughInjectedExporters(t *testing.T) {
	ctx := context.Background()
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	spans := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()
	tel, err := New(ctx, cfg, WithTraceExporter(spans), WithMetricReader(reader))
	require.NoError(t, err)
	require.True(t, tel.Enabled())
	require.False(t, tel.Degraded())

	_, span := tel.TracerProvider().Tracer("test").Start(ctx, "provision.pre_launch")
	span.SetAttributes(attribute.String("kind", "Uv"))
	span.End()

	counter, err := tel.MeterProvider().Meter("test").Int64Counter("launches")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	// The in-memory exporter clears itself on shutdown, so flush first.
	require.NoError(t, tel.tracerProvider.ForceFlush(ctx))

	got := spans.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, "provision.pre_launch", got[0].Name)

	svc, ok := got[0].Resource.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "pyproject-kernel", svc.AsString())

	require.NoError(t, tel.Shutdown(ctx))
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Metrics = false

	tel, err := New(context.Background(), cfg, WithTraceExporter(tracetest.NewInMemoryExporter()))
	require.NoError(t, err)
	assert.Nil(t, tel.meterProvider)
	assert.NotNil(t, tel.MeterProvider())
}

func TestTelemetry_LoggerProvider(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, global.GetLoggerProvider(), tel.LoggerProvider())

	lp := lognoop.NewLoggerProvider()
	tel, err = New(context.Background(), NewDefaultConfig(), WithLoggerProvider(lp))
	require.NoError(t, err)
	assert.Equal(t, lp, tel.LoggerProvider())
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry
	assert.NotPanics(t, func() {
		_ = tel.TracerProvider()
		_ = tel.MeterProvider()
		_ = tel.LoggerProvider()
		_ = tel.Enabled()
		_ = tel.Degraded()
		_ = tel.Shutdown(context.Background())
	})
}

func TestSetDegraded_Logs(t *testing.T) {
	logger := logging.NewTestLogger()
	tel := &Telemetry{config: NewDefaultConfig(), logger: logger.Logger}

	tel.setDegraded(context.Background(), "meter provider failed", assert.AnError)

	assert.True(t, tel.Degraded())
	logger.AssertLogged(t, zapcore.WarnLevel, "telemetry degraded: meter provider failed")
}

func TestTestTelemetry(t *testing.T) {
	ctx := context.Background()
	tt := NewTestTelemetry()

	_, span := tt.TracerProvider().Tracer("test").Start(ctx, "provision.sanity_check")
	span.End()
	tt.AssertSpanExists(t, "provision.sanity_check")

	counter, err := tt.MeterProvider().Meter("test").Int64Counter("pyproject_kernel.fallbacks_total")
	require.NoError(t, err)
	counter.Add(ctx, 1)
	counter.Add(ctx, 2)
	assert.Equal(t, int64(3), tt.Counter(t, "pyproject_kernel.fallbacks_total"))
}
