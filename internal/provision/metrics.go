package provision

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/detect"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/pyproject-kernel/internal/provision"

// Metrics records launch outcomes. Instruments that fail to register are
// left nil and skipped.
type Metrics struct {
	detections     metric.Int64Counter
	fallbacks      metric.Int64Counter
	sanityDuration metric.Float64Histogram
}

// NewMetrics creates instruments on provider, or on the global provider when
// provider is nil.
func NewMetrics(provider metric.MeterProvider, logger *logging.Logger) *Metrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx := context.Background()
	meter := provider.Meter(instrumentationName)
	m := &Metrics{}

	var err error
	m.detections, err = meter.Int64Counter(
		"pyproject_kernel.detections_total",
		metric.WithDescription("Project detections labeled by project kind."),
		metric.WithUnit("{detection}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create detections counter", zap.Error(err))
	}

	m.fallbacks, err = meter.Int64Counter(
		"pyproject_kernel.fallbacks_total",
		metric.WithDescription("Launches that fell back to the help kernel, labeled by reason."),
		metric.WithUnit("{launch}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create fallbacks counter", zap.Error(err))
	}

	m.sanityDuration, err = meter.Float64Histogram(
		"pyproject_kernel.sanity_check.duration",
		metric.WithDescription("Duration of the ipykernel sanity probe in seconds."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create sanity duration histogram", zap.Error(err))
	}
	return m
}

func (m *Metrics) recordDetection(ctx context.Context, kind detect.Kind) {
	if m == nil || m.detections == nil {
		return
	}
	m.detections.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.String())))
}

func (m *Metrics) recordFallback(ctx context.Context, reason string) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) recordSanity(ctx context.Context, d time.Duration, ok bool) {
	if m == nil || m.sanityDuration == nil {
		return
	}
	m.sanityDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("ok", ok)))
}
